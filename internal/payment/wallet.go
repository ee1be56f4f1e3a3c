package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/models"
	"tutorlink/internal/pkg/httpclient"
)

const (
	WalletReturnPath = "/api/payments/wallet/return"
	WalletIPNPath    = "/api/payments/wallet/ipn"
)

// walletCallbackFields is the provider's signing order for IPN and return deliveries.
var walletCallbackFields = []string{
	"accessKey", "amount", "extraData", "message", "orderId", "orderInfo", "orderType",
	"partnerCode", "payType", "requestId", "responseTime", "resultCode", "transId",
}

// WalletGateway implements the Gateway interface for the e-wallet provider.
type WalletGateway struct {
	cfg    config.WalletConfig
	client *httpclient.Client
	now    func() time.Time
}

func NewWalletGateway(cfg config.WalletConfig) *WalletGateway {
	return &WalletGateway{
		cfg:    cfg,
		client: httpclient.New().WithTimeout(30 * time.Second).WithRetryCount(0),
		now:    time.Now,
	}
}

func (w *WalletGateway) Name() string {
	return string(models.GatewayWallet)
}

func (w *WalletGateway) configured() bool {
	return w.cfg.Configured() && w.cfg.Endpoint != ""
}

type walletCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type walletCreateResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

func (w *WalletGateway) CreatePayment(ctx context.Context, co Checkout) (*PaymentResult, error) {
	if !w.configured() {
		return nil, apperr.ErrNotConfigured
	}
	if res, err := precheck(co.Booking); res != nil || err != nil {
		return res, err
	}
	b := co.Booking

	req := walletCreateRequest{
		PartnerCode: w.cfg.PartnerCode,
		AccessKey:   w.cfg.AccessKey,
		RequestID:   uuid.NewString(),
		Amount:      b.Price,
		OrderID:     NewOrderID(OrderPrefixGateway, b.ID, w.now()),
		OrderInfo:   fmt.Sprintf("Thanh toan booking #%d", b.ID),
		RedirectURL: strings.TrimRight(co.CallbackURL, "/") + WalletReturnPath,
		IPNURL:      strings.TrimRight(co.CallbackURL, "/") + WalletIPNPath,
		RequestType: w.cfg.RequestType,
		Lang:        w.cfg.Lang,
	}
	req.Signature = HMACSHA256Hex(w.cfg.SecretKey, OrderedFieldString([]Field{
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
	}))

	var resp walletCreateResponse
	if err := w.client.PostJSONInto(ctx, w.cfg.Endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: wallet create payment: %v", apperr.ErrUpstream, err)
	}
	if resp.PayURL == "" {
		return nil, fmt.Errorf("%w: wallet returned no payUrl (code %d: %s)", apperr.ErrUpstream, resp.ResultCode, resp.Message)
	}

	return &PaymentResult{
		OrderID:    req.OrderID,
		PaymentURL: resp.PayURL,
	}, nil
}

// WalletCallback is a verified IPN or return delivery.
type WalletCallback struct {
	OrderID    string
	TransID    string
	Amount     int64
	ResultCode string
	Message    string
}

func (c *WalletCallback) Success() bool {
	return c.ResultCode == "0"
}

// WalletSignString builds the callback signing string. The access key comes from
// configuration, never from the delivery.
func WalletSignString(accessKey string, fields map[string]string) string {
	ordered := make([]Field, 0, len(walletCallbackFields))
	for _, k := range walletCallbackFields {
		v := fields[k]
		if k == "accessKey" {
			v = accessKey
		}
		ordered = append(ordered, Field{Key: k, Value: v})
	}
	return OrderedFieldString(ordered)
}

// VerifyCallback checks the delivery signature and decodes the outcome.
func (w *WalletGateway) VerifyCallback(fields map[string]string) (*WalletCallback, error) {
	if w.cfg.SecretKey == "" {
		return nil, apperr.ErrNotConfigured
	}
	expected := HMACSHA256Hex(w.cfg.SecretKey, WalletSignString(w.cfg.AccessKey, fields))
	if !EqualSignature(expected, fields["signature"]) {
		return nil, apperr.ErrChecksumFailed
	}

	amount, _ := strconv.ParseInt(fields["amount"], 10, 64)
	return &WalletCallback{
		OrderID:    fields["orderId"],
		TransID:    fields["transId"],
		Amount:     amount,
		ResultCode: fields["resultCode"],
		Message:    fields["message"],
	}, nil
}
