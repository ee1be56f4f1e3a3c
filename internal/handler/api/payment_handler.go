package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tutorlink/internal/middleware"
	"tutorlink/internal/models"
	"tutorlink/internal/reconcile"
	"tutorlink/internal/repository"
)

// PaymentHandler handles payment creation and manual payment actions.
type PaymentHandler struct {
	engine   *reconcile.Engine
	payments *repository.PaymentRepository
	logger   *zap.Logger
}

func NewPaymentHandler(engine *reconcile.Engine, payments *repository.PaymentRepository, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{engine: engine, payments: payments, logger: logger}
}

// Create returns a handler that starts a checkout with provider.
// POST /api/payments/{card,wallet,bank}/create
func (h *PaymentHandler) Create(provider models.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req bookingRequest
		if err := bind(c, &req); err != nil {
			return errorResponse(c, h.logger, err)
		}
		res, err := h.engine.CreatePayment(c.Request().Context(), middleware.SubjectFrom(c), string(provider), uint(req.BookingID), c.RealIP())
		if err != nil {
			return errorResponse(c, h.logger, err)
		}
		if res.AlreadyPaid {
			return successResponse(c, models.APIResponse{AlreadyPaid: true})
		}
		return successResponse(c, models.APIResponse{URL: res.PaymentURL})
	}
}

// Onboard returns the card processor onboarding link for the calling tutor.
// POST /api/payments/card/onboard
func (h *PaymentHandler) Onboard(c echo.Context) error {
	ob, err := h.engine.Onboard(c.Request().Context(), middleware.SubjectFrom(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{URL: ob.URL})
}

// DeclareCash POST /api/payments/cash/declare
func (h *PaymentHandler) DeclareCash(c echo.Context) error {
	var req bookingRequest
	if err := bind(c, &req); err != nil {
		return errorResponse(c, h.logger, err)
	}
	t, err := h.engine.DeclareCash(c.Request().Context(), middleware.SubjectFrom(c), uint(req.BookingID))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{AlreadyPaid: t.AlreadyPaid})
}

// ConfirmCash POST /api/payments/cash/confirm
func (h *PaymentHandler) ConfirmCash(c echo.Context) error {
	var req bookingRequest
	if err := bind(c, &req); err != nil {
		return errorResponse(c, h.logger, err)
	}
	res, err := h.engine.ConfirmCash(c.Request().Context(), middleware.SubjectFrom(c), uint(req.BookingID))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{AlreadyPaid: res.Duplicate})
}

// SubmitBankTransfer POST /api/payments/bank-transfer/submit
func (h *PaymentHandler) SubmitBankTransfer(c echo.Context) error {
	var req bookingRequest
	if err := bind(c, &req); err != nil {
		return errorResponse(c, h.logger, err)
	}
	res, err := h.engine.SubmitBankProof(c.Request().Context(), middleware.SubjectFrom(c), uint(req.BookingID))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{AlreadyPaid: res.Transition.AlreadyPaid})
}

// TransferInstructions GET /api/payments/bank-transfer/:id
func (h *PaymentHandler) TransferInstructions(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	ti, err := h.engine.TransferInstructions(c.Request().Context(), middleware.SubjectFrom(c), id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{URL: ti.QRURL, Data: ti})
}

// ListPayments returns the payment event log for admins.
// GET /api/admin/payments?limit=&page=&q=
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if page <= 0 {
		page = 1
	}

	events, total, err := h.payments.FindAll(c.Request().Context(), limit, page, c.QueryParam("q"))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: paginatedResponse(events, total, page, limit)})
}
