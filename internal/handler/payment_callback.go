package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tutorlink/internal/apperr"
	"tutorlink/internal/middleware"
	"tutorlink/internal/payment"
	"tutorlink/internal/reconcile"
)

const maxWebhookBody = 1 << 16

// PaymentCallbackHandler handles gateway callbacks.
type PaymentCallbackHandler struct {
	engine  *reconcile.Engine
	wallet  *payment.WalletGateway
	bank    *payment.BankGateway
	card    *payment.CardGateway
	deduper middleware.DeliveryDeduper
	appURL  string
	logger  *zap.Logger
}

// CallbackGateways bundles the verifiers for payment callbacks.
type CallbackGateways struct {
	Wallet *payment.WalletGateway
	Bank   *payment.BankGateway
	Card   *payment.CardGateway
}

// NewPaymentCallbackHandler creates a new payment callback handler.
func NewPaymentCallbackHandler(
	engine *reconcile.Engine,
	gateways CallbackGateways,
	deduper middleware.DeliveryDeduper,
	appURL string,
	logger *zap.Logger,
) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		engine:  engine,
		wallet:  gateways.Wallet,
		bank:    gateways.Bank,
		card:    gateways.Card,
		deduper: deduper,
		appURL:  strings.TrimRight(appURL, "/"),
		logger:  logger,
	}
}

// ── Wallet ───────────────────────────────────────────────────────────

type walletAck struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// WalletIPN handles the provider's server-to-server notification.
// POST /api/payments/wallet/ipn
func (h *PaymentCallbackHandler) WalletIPN(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusOK, walletAck{ResultCode: 97, Message: "Checksum failed"})
	}
	raw, err := payment.RawFromJSON(body)
	if err != nil {
		h.logger.Warn("Wallet IPN with unreadable body", zap.Error(err))
		return c.JSON(http.StatusOK, walletAck{ResultCode: 97, Message: "Checksum failed"})
	}
	if h.wallet == nil {
		return c.JSON(http.StatusOK, walletAck{ResultCode: 97, Message: "Not configured"})
	}

	cb, err := h.wallet.VerifyCallback(raw.Strings())
	switch {
	case errors.Is(err, apperr.ErrNotConfigured):
		return c.JSON(http.StatusOK, walletAck{ResultCode: 97, Message: "Not configured"})
	case err != nil:
		h.logger.Warn("Wallet IPN checksum failed", zap.String("order_id", raw.String("orderId")))
		return c.JSON(http.StatusOK, walletAck{ResultCode: 97, Message: "Checksum failed"})
	}

	key := middleware.DeliveryKey("wallet", cb.OrderID, cb.TransID, cb.ResultCode)
	h.once(c.Request().Context(), key, func(ctx context.Context) bool {
		_, ok := h.engine.HandleWalletCallback(ctx, cb, raw.JSON(), reconcile.DeliveryIPN)
		return ok
	})
	return c.JSON(http.StatusOK, walletAck{ResultCode: 0, Message: "OK"})
}

// WalletReturn handles the payer's browser coming back from the provider.
// GET /api/payments/wallet/return
func (h *PaymentCallbackHandler) WalletReturn(c echo.Context) error {
	raw := payment.RawFromQuery(c.Request().URL.RawQuery)
	bookingID := payment.ParseOrderID(raw.String("orderId"))
	if h.wallet == nil {
		return h.redirectResult(c, bookingID, false)
	}

	cb, err := h.wallet.VerifyCallback(raw.Strings())
	if err != nil {
		h.logger.Warn("Wallet return not verified",
			zap.String("order_id", raw.String("orderId")),
			zap.Error(err),
		)
		return h.redirectResult(c, bookingID, false)
	}

	key := middleware.DeliveryKey("wallet", cb.OrderID, cb.TransID, cb.ResultCode)
	h.once(c.Request().Context(), key, func(ctx context.Context) bool {
		_, ok := h.engine.HandleWalletCallback(ctx, cb, raw.JSON(), reconcile.DeliveryReturn)
		return ok
	})
	return h.redirectResult(c, bookingID, cb.Success())
}

// ── Bank wallet ──────────────────────────────────────────────────────

type bankAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// BankIPN handles the provider's server-to-server notification.
// GET /api/payments/bank/ipn
func (h *PaymentCallbackHandler) BankIPN(c echo.Context) error {
	if h.bank == nil {
		return c.JSON(http.StatusOK, bankAck{RspCode: "97", Message: "Not configured"})
	}
	cb, err := h.bank.VerifyCallback(c.QueryParams())
	switch {
	case errors.Is(err, apperr.ErrNotConfigured):
		return c.JSON(http.StatusOK, bankAck{RspCode: "97", Message: "Not configured"})
	case err != nil:
		h.logger.Warn("Bank IPN checksum failed", zap.String("order_id", c.QueryParam("vnp_TxnRef")))
		return c.JSON(http.StatusOK, bankAck{RspCode: "97", Message: "Checksum failed"})
	}

	raw := payment.RawFromQuery(c.Request().URL.RawQuery)
	key := middleware.DeliveryKey("bank", cb.OrderID, cb.TransactionNo, cb.ResponseCode, cb.TransactionStatus)
	h.once(c.Request().Context(), key, func(ctx context.Context) bool {
		_, ok := h.engine.HandleBankCallback(ctx, cb, raw.JSON(), reconcile.DeliveryIPN)
		return ok
	})
	return c.JSON(http.StatusOK, bankAck{RspCode: "00", Message: "OK"})
}

// BankReturn handles the payer's browser coming back from the provider.
// GET /api/payments/bank/return
func (h *PaymentCallbackHandler) BankReturn(c echo.Context) error {
	bookingID := payment.ParseOrderID(c.QueryParam("vnp_TxnRef"))
	if h.bank == nil {
		return h.redirectResult(c, bookingID, false)
	}

	cb, err := h.bank.VerifyCallback(c.QueryParams())
	if err != nil {
		h.logger.Warn("Bank return not verified",
			zap.String("order_id", c.QueryParam("vnp_TxnRef")),
			zap.Error(err),
		)
		return h.redirectResult(c, bookingID, false)
	}

	raw := payment.RawFromQuery(c.Request().URL.RawQuery)
	key := middleware.DeliveryKey("bank", cb.OrderID, cb.TransactionNo, cb.ResponseCode, cb.TransactionStatus)
	h.once(c.Request().Context(), key, func(ctx context.Context) bool {
		_, ok := h.engine.HandleBankCallback(ctx, cb, raw.JSON(), reconcile.DeliveryReturn)
		return ok
	})
	return h.redirectResult(c, bookingID, cb.Success())
}

// ── Card ─────────────────────────────────────────────────────────────

// CardWebhook handles signed card processor events.
// POST /api/payments/card/webhook
func (h *PaymentCallbackHandler) CardWebhook(c echo.Context) error {
	if h.card == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"received": false, "reason": "not_configured"})
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"received": false})
	}

	ev, err := h.card.ConstructEvent(body, c.Request().Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, apperr.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"received": false, "reason": "not_configured"})
	case err != nil:
		h.logger.Warn("Card webhook rejected", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"received": false, "reason": apperr.Reason(err)})
	}

	h.once(c.Request().Context(), middleware.DeliveryKey("card", ev.ID), func(ctx context.Context) bool {
		_, ok := h.engine.HandleCardEvent(ctx, ev)
		return ok
	})
	return c.JSON(http.StatusOK, map[string]interface{}{"received": true})
}

// ── Helpers ──────────────────────────────────────────────────────────

// once runs fn unless key was already processed. When fn reports the
// delivery was not stored the key is released, so a later redelivery is
// applied instead of skipped.
func (h *PaymentCallbackHandler) once(ctx context.Context, key string, fn func(ctx context.Context) bool) {
	if h.deduper != nil {
		dup, err := h.deduper.Seen(ctx, key)
		if err != nil {
			h.logger.Warn("Delivery dedup unavailable", zap.String("key", key), zap.Error(err))
		} else if dup {
			h.logger.Info("Duplicate delivery skipped", zap.String("key", key))
			return
		}
	}

	if fn(ctx) || h.deduper == nil {
		return
	}
	if err := h.deduper.Forget(ctx, key); err != nil {
		h.logger.Warn("Failed to release delivery key", zap.String("key", key), zap.Error(err))
	}
}

func (h *PaymentCallbackHandler) redirectResult(c echo.Context, bookingID uint, paid bool) error {
	flag := "failed=1"
	if paid {
		flag = "paid=1"
	}
	target := h.appURL + "/bookings?" + flag
	if bookingID != 0 {
		target = fmt.Sprintf("%s/bookings/%d?%s", h.appURL, bookingID, flag)
	}
	return c.Redirect(http.StatusFound, target)
}
