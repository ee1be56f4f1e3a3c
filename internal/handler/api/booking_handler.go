package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tutorlink/internal/apperr"
	"tutorlink/internal/ledger"
	"tutorlink/internal/middleware"
	"tutorlink/internal/models"
	"tutorlink/internal/pkg/utils"
	"tutorlink/internal/reconcile"
)

// BookingHandler handles booking creation and lookup.
type BookingHandler struct {
	ledger *ledger.Ledger
	engine *reconcile.Engine
	logger *zap.Logger
}

func NewBookingHandler(l *ledger.Ledger, engine *reconcile.Engine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{ledger: l, engine: engine, logger: logger}
}

type acceptRequest struct {
	RequestID FlexibleID `json:"requestId" validate:"required"`
}

// Accept lets a tutor take an open tutoring request, creating its booking.
// POST /api/bookings/accept
func (h *BookingHandler) Accept(c echo.Context) error {
	var req acceptRequest
	if err := bind(c, &req); err != nil {
		return errorResponse(c, h.logger, err)
	}
	b, err := h.ledger.AcceptRequest(c.Request().Context(), middleware.SubjectFrom(c), uint(req.RequestID))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: b})
}

// List returns the caller's bookings as student or tutor.
// GET /api/bookings
func (h *BookingHandler) List(c echo.Context) error {
	bookings, err := h.ledger.ForParty(c.Request().Context(), middleware.SubjectFrom(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: bookings})
}

// Get returns a booking with its payment history to one of its parties.
// GET /api/bookings/:id
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	detail, err := h.engine.Booking(c.Request().Context(), middleware.SubjectFrom(c), id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: detail})
}

func pathID(c echo.Context) (uint, error) {
	id := utils.ParseUint(c.Param("id"), 0)
	if id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", apperr.ErrInvalidInput, c.Param("id"))
	}
	return id, nil
}
