package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tutorlink/internal/apperr"
	"tutorlink/internal/models"
)

// Validator adapts validator/v10 to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// FlexibleID accepts a JSON number or a numeric string.
type FlexibleID uint

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*id = FlexibleID(v)
	return nil
}

// bookingRequest is the body of every booking-scoped payment action.
type bookingRequest struct {
	BookingID FlexibleID `json:"bookingId" validate:"required"`
}

// bind decodes and validates the request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed body", apperr.ErrInvalidInput)
	}
	if err := c.Validate(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("%w: %s failed %s", apperr.ErrInvalidInput, ve[0].Field(), ve[0].Tag())
		}
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

func successResponse(c echo.Context, resp models.APIResponse) error {
	resp.OK = true
	return c.JSON(http.StatusOK, resp)
}

// errorResponse maps err to its status code and reason.
func errorResponse(c echo.Context, logger *zap.Logger, err error) error {
	status := apperr.HTTPStatus(err)
	resp := models.APIResponse{OK: false, Reason: apperr.Reason(err), Retryable: apperr.Retryable(err)}
	if status >= http.StatusInternalServerError && apperr.KindOf(err) == apperr.KindUnknown {
		logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		resp.Reason = "internal_error"
		resp.Message = "Internal error"
	} else {
		resp.Message = err.Error()
	}
	return c.JSON(status, resp)
}

func paginatedResponse(data interface{}, total int64, page, limit int) models.PaginatedResponse {
	return models.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		limit = 50
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// queryInt reads an integer query parameter with a default value.
func queryInt(c echo.Context, key string, defaultVal int) int {
	if v, err := strconv.Atoi(c.QueryParam(key)); err == nil {
		return v
	}
	return defaultVal
}
