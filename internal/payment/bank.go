package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/models"
)

const (
	BankReturnPath = "/api/payments/bank/return"

	bankHashKey     = "vnp_SecureHash"
	bankHashTypeKey = "vnp_SecureHashType"
)

// The provider expects local Vietnam time in vnp_CreateDate.
var bankZone = time.FixedZone("ICT", 7*60*60)

// BankGateway implements the Gateway interface for the bank-wallet provider.
// Amounts travel in minor units (x100).
type BankGateway struct {
	cfg config.BankConfig
	now func() time.Time
}

func NewBankGateway(cfg config.BankConfig) *BankGateway {
	return &BankGateway{cfg: cfg, now: time.Now}
}

func (g *BankGateway) Name() string {
	return string(models.GatewayBank)
}

func (g *BankGateway) configured() bool {
	return g.cfg.Configured() && g.cfg.URL != ""
}

func (g *BankGateway) CreatePayment(_ context.Context, co Checkout) (*PaymentResult, error) {
	if !g.configured() {
		return nil, apperr.ErrNotConfigured
	}
	if res, err := precheck(co.Booking); res != nil || err != nil {
		return res, err
	}
	b := co.Booking

	now := g.now()
	orderID := NewOrderID(OrderPrefixGateway, b.ID, now)
	ip := co.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Locale":     g.cfg.Locale,
		"vnp_CurrCode":   g.cfg.CurrCode,
		"vnp_TxnRef":     orderID,
		"vnp_OrderInfo":  fmt.Sprintf("Thanh toan booking #%d", b.ID),
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(b.Price*100, 10),
		"vnp_ReturnUrl":  strings.TrimRight(co.CallbackURL, "/") + BankReturnPath,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": now.In(bankZone).Format("20060102150405"),
	}
	signData := SortedQueryString(params)
	hash := HMACSHA512Hex(g.cfg.HashSecret, signData)

	return &PaymentResult{
		OrderID:    orderID,
		PaymentURL: g.cfg.URL + "?" + signData + "&" + bankHashKey + "=" + hash,
	}, nil
}

// BankCallback is a verified IPN or return delivery.
type BankCallback struct {
	OrderID           string
	TransactionNo     string
	Amount            int64
	Currency          string
	ResponseCode      string
	TransactionStatus string
}

func (c *BankCallback) Success() bool {
	return c.ResponseCode == "00" && c.TransactionStatus == "00"
}

// VerifyCallback re-signs every parameter except the hash fields and compares.
func (g *BankGateway) VerifyCallback(query url.Values) (*BankCallback, error) {
	if g.cfg.HashSecret == "" {
		return nil, apperr.ErrNotConfigured
	}

	params := make(map[string]string, len(query))
	for k, v := range query {
		if k == bankHashKey || k == bankHashTypeKey || len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}
	expected := HMACSHA512Hex(g.cfg.HashSecret, SortedQueryString(params))
	if !EqualSignature(expected, query.Get(bankHashKey)) {
		return nil, apperr.ErrChecksumFailed
	}

	minor, _ := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	currency := params["vnp_CurrCode"]
	if currency == "" {
		currency = "VND"
	}
	return &BankCallback{
		OrderID:           params["vnp_TxnRef"],
		TransactionNo:     params["vnp_TransactionNo"],
		Amount:            (minor + 50) / 100,
		Currency:          currency,
		ResponseCode:      params["vnp_ResponseCode"],
		TransactionStatus: params["vnp_TransactionStatus"],
	}, nil
}
