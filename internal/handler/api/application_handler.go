package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tutorlink/internal/apperr"
	"tutorlink/internal/approval"
	"tutorlink/internal/middleware"
	"tutorlink/internal/models"
)

// ApplicationHandler handles tutor applications and their admin review.
type ApplicationHandler struct {
	service *approval.Service
	logger  *zap.Logger
}

func NewApplicationHandler(service *approval.Service, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{service: service, logger: logger}
}

// Submit POST /api/applications
func (h *ApplicationHandler) Submit(c echo.Context) error {
	var req approval.Application
	if err := bind(c, &req); err != nil {
		return errorResponse(c, h.logger, err)
	}
	app, err := h.service.Submit(c.Request().Context(), middleware.SubjectFrom(c), req)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: app})
}

// ListPending GET /api/admin/applications
func (h *ApplicationHandler) ListPending(c echo.Context) error {
	apps, err := h.service.ListPending(c.Request().Context(), middleware.SubjectFrom(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: apps})
}

type reviewRequest struct {
	Action string     `json:"action" validate:"required,oneof=approve reject"`
	ID     FlexibleID `json:"id" validate:"required"`
}

// Review approves or rejects an application.
// POST /api/admin/applications
func (h *ApplicationHandler) Review(c echo.Context) error {
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return errorResponse(c, h.logger, err)
	}

	var (
		app *models.TutorApplication
		err error
	)
	ctx := c.Request().Context()
	actor := middleware.SubjectFrom(c)
	switch req.Action {
	case "approve":
		app, err = h.service.Approve(ctx, actor, uint(req.ID))
	case "reject":
		app, err = h.service.Reject(ctx, actor, uint(req.ID))
	default:
		err = fmt.Errorf("%w: unknown action %q", apperr.ErrInvalidInput, req.Action)
	}
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	return successResponse(c, models.APIResponse{Data: app})
}
