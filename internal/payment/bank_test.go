package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/models"
)

func bankConfig() config.BankConfig {
	return config.BankConfig{
		TmnCode:    "TMN01",
		HashSecret: "hash-secret",
		URL:        "https://sandbox.bank.example/pay.html",
		CurrCode:   "VND",
		Locale:     "vn",
	}
}

func TestBankCreatePayment(t *testing.T) {
	gw := NewBankGateway(bankConfig())
	gw.now = func() time.Time { return time.Date(2024, 3, 1, 17, 30, 5, 0, time.UTC) }

	res, err := gw.CreatePayment(context.Background(), Checkout{
		Booking:     &models.Booking{ID: 9, Price: 300000},
		CallbackURL: "https://api.example",
		ClientIP:    "10.0.0.5",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if !strings.HasPrefix(res.PaymentURL, "https://sandbox.bank.example/pay.html?vnp_Amount=30000000&") {
		t.Errorf("PaymentURL = %s", res.PaymentURL)
	}

	u, err := url.Parse(res.PaymentURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	if got := q.Get("vnp_CreateDate"); got != "20240302003005" {
		t.Errorf("vnp_CreateDate = %s, want local +7 time", got)
	}
	if got := q.Get("vnp_ReturnUrl"); got != "https://api.example"+BankReturnPath {
		t.Errorf("vnp_ReturnUrl = %s", got)
	}
	if q.Get("vnp_TxnRef") != res.OrderID || ParseOrderID(res.OrderID) != 9 {
		t.Errorf("vnp_TxnRef = %s, order id = %s", q.Get("vnp_TxnRef"), res.OrderID)
	}

	// The redirect query verifies with the same rule the callbacks use.
	cb, err := gw.VerifyCallback(q)
	if err != nil {
		t.Fatalf("VerifyCallback(create query): %v", err)
	}
	if cb.Amount != 300000 {
		t.Errorf("Amount = %d, want 300000", cb.Amount)
	}
}

func TestBankCreatePaymentNotConfigured(t *testing.T) {
	gw := NewBankGateway(config.BankConfig{URL: "https://x"})
	_, err := gw.CreatePayment(context.Background(), Checkout{Booking: &models.Booking{ID: 1, Price: 1}})
	if !errors.Is(err, apperr.ErrNotConfigured) {
		t.Errorf("err = %v, want not configured", err)
	}
}

func TestBankVerifyCallbackTamperedAmount(t *testing.T) {
	gw := NewBankGateway(bankConfig())
	q := url.Values{}
	q.Set("vnp_Amount", "30000000")
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TransactionStatus", "00")
	q.Set("vnp_TxnRef", "bk-9-1700000000000")
	params := map[string]string{}
	for k := range q {
		params[k] = q.Get(k)
	}
	q.Set("vnp_SecureHash", HMACSHA512Hex("hash-secret", SortedQueryString(params)))

	cb, err := gw.VerifyCallback(q)
	if err != nil || !cb.Success() {
		t.Fatalf("genuine callback: %+v, %v", cb, err)
	}

	q.Set("vnp_Amount", "100")
	if _, err := gw.VerifyCallback(q); !errors.Is(err, apperr.ErrChecksumFailed) {
		t.Errorf("tampered amount err = %v, want checksum failed", err)
	}

	q.Del("vnp_SecureHash")
	if _, err := gw.VerifyCallback(q); !errors.Is(err, apperr.ErrChecksumFailed) {
		t.Errorf("missing hash err = %v, want checksum failed", err)
	}
}

func TestBankSignStringEscaping(t *testing.T) {
	params := map[string]string{
		"vnp_Amount":    "30000000",
		"vnp_OrderInfo": "Booking 12 (math)!*'",
		"vnp_TxnRef":    "bk-12-1699999999999",
	}
	got := SortedQueryString(params)
	want := "vnp_Amount=30000000&vnp_OrderInfo=Booking+12+%28math%29%21%2A%27&vnp_TxnRef=bk-12-1699999999999"
	if got != want {
		t.Fatalf("sign string = %q, want %q", got, want)
	}

	gw := NewBankGateway(bankConfig())
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("vnp_SecureHash", HMACSHA512Hex("hash-secret", got))
	if _, err := gw.VerifyCallback(q); err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}

	// A hash over the %20 form of the same values does not verify.
	q.Set("vnp_SecureHash", HMACSHA512Hex("hash-secret", strings.ReplaceAll(got, "+", "%20")))
	if _, err := gw.VerifyCallback(q); !errors.Is(err, apperr.ErrChecksumFailed) {
		t.Errorf("err = %v, want checksum failed", err)
	}
}
