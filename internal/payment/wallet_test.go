package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/models"
)

func newWalletServer(t *testing.T, secret string, payURL string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req walletCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		raw := OrderedFieldString([]Field{
			{"accessKey", req.AccessKey},
			{"amount", strconv.FormatInt(req.Amount, 10)},
			{"extraData", req.ExtraData},
			{"ipnUrl", req.IPNURL},
			{"orderId", req.OrderID},
			{"orderInfo", req.OrderInfo},
			{"partnerCode", req.PartnerCode},
			{"redirectUrl", req.RedirectURL},
			{"requestId", req.RequestID},
			{"requestType", req.RequestType},
		})
		if HMACSHA256Hex(secret, raw) != req.Signature {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"resultCode":11,"message":"bad signature"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"resultCode": 0, "payUrl": payURL})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func walletConfig(endpoint string) config.WalletConfig {
	return config.WalletConfig{
		PartnerCode: "MOMO",
		AccessKey:   "ak",
		SecretKey:   "sk",
		Endpoint:    endpoint,
		RequestType: "captureWallet",
		Lang:        "vi",
	}
}

func TestWalletCreatePayment(t *testing.T) {
	srv, calls := newWalletServer(t, "sk", "https://pay.example/abc")
	gw := NewWalletGateway(walletConfig(srv.URL))
	gw.now = func() time.Time { return time.UnixMilli(1700000000000) }

	res, err := gw.CreatePayment(context.Background(), Checkout{
		Booking:     &models.Booking{ID: 7, Price: 300000, PaymentStatus: models.PaymentUnpaid},
		CallbackURL: "https://api.example/",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if res.PaymentURL != "https://pay.example/abc" || res.OrderID != "bk-7-1700000000000" {
		t.Errorf("result = %+v", res)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("calls = %d", *calls)
	}
}

func TestWalletCreatePaymentErrors(t *testing.T) {
	booking := &models.Booking{ID: 7, Price: 300000, PaymentStatus: models.PaymentUnpaid}

	t.Run("not configured", func(t *testing.T) {
		gw := NewWalletGateway(config.WalletConfig{Endpoint: "http://unused"})
		_, err := gw.CreatePayment(context.Background(), Checkout{Booking: booking})
		if !errors.Is(err, apperr.ErrNotConfigured) {
			t.Errorf("err = %v, want not configured", err)
		}
	})

	t.Run("missing payUrl", func(t *testing.T) {
		srv, _ := newWalletServer(t, "sk", "")
		gw := NewWalletGateway(walletConfig(srv.URL))
		_, err := gw.CreatePayment(context.Background(), Checkout{Booking: booking})
		if !errors.Is(err, apperr.ErrUpstream) || !apperr.Retryable(err) {
			t.Errorf("err = %v, want upstream", err)
		}
	})

	t.Run("provider rejects signature", func(t *testing.T) {
		srv, _ := newWalletServer(t, "other-secret", "https://pay.example/abc")
		gw := NewWalletGateway(walletConfig(srv.URL))
		_, err := gw.CreatePayment(context.Background(), Checkout{Booking: booking})
		if !errors.Is(err, apperr.ErrUpstream) {
			t.Errorf("err = %v, want upstream", err)
		}
	})

	t.Run("already paid", func(t *testing.T) {
		srv, calls := newWalletServer(t, "sk", "https://pay.example/abc")
		gw := NewWalletGateway(walletConfig(srv.URL))
		paid := *booking
		paid.PaymentStatus = models.PaymentPaid
		res, err := gw.CreatePayment(context.Background(), Checkout{Booking: &paid})
		if err != nil || !res.AlreadyPaid {
			t.Fatalf("got %+v, %v; want already paid", res, err)
		}
		if atomic.LoadInt32(calls) != 0 {
			t.Error("provider must not be called for a paid booking")
		}
	})

	t.Run("invalid price", func(t *testing.T) {
		gw := NewWalletGateway(walletConfig("http://unused"))
		_, err := gw.CreatePayment(context.Background(), Checkout{Booking: &models.Booking{ID: 7}})
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("err = %v, want invalid input", err)
		}
	})
}

func TestWalletVerifyCallback(t *testing.T) {
	gw := NewWalletGateway(config.WalletConfig{PartnerCode: "MOMO", AccessKey: "ak", SecretKey: "sk"})

	cb, err := gw.VerifyCallback(signedWalletFields("sk", "ak"))
	if err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}
	if !cb.Success() || cb.Amount != 300000 || cb.OrderID != "bk-7-1700000000000" || cb.TransID != "4088878653" {
		t.Errorf("callback = %+v", cb)
	}

	// The access key is taken from configuration: a delivery signed with another one fails.
	if _, err := gw.VerifyCallback(signedWalletFields("sk", "other")); !errors.Is(err, apperr.ErrChecksumFailed) {
		t.Errorf("err = %v, want checksum failed", err)
	}

	unconfigured := NewWalletGateway(config.WalletConfig{})
	if _, err := unconfigured.VerifyCallback(signedWalletFields("sk", "ak")); !errors.Is(err, apperr.ErrNotConfigured) {
		t.Errorf("err = %v, want not configured", err)
	}
}
