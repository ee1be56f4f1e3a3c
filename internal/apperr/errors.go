package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidInput
	KindNotConfigured
	KindChecksumFailed
	KindUpstream
	KindConflict
)

// Error is a classified error carrying a machine-readable reason string.
// Specific errors (ErrNotTutor) match their generic kind (ErrForbidden) with errors.Is.
type Error struct {
	Kind    Kind
	Reason  string
	generic bool
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.generic && t.Kind == e.Kind
}

// New creates a specific error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func generic(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, generic: true}
}

var (
	ErrUnauthorized   = generic(KindUnauthorized, "unauthorized")
	ErrForbidden      = generic(KindForbidden, "forbidden")
	ErrNotFound       = generic(KindNotFound, "not_found")
	ErrInvalidInput   = generic(KindInvalidInput, "invalid_input")
	ErrNotConfigured  = generic(KindNotConfigured, "not_configured")
	ErrChecksumFailed = generic(KindChecksumFailed, "checksum_failed")
	ErrUpstream       = generic(KindUpstream, "upstream_failure")
	ErrConflict       = generic(KindConflict, "conflict")
)

var (
	ErrBookingNotFound     = New(KindNotFound, "booking_not_found")
	ErrRequestNotFound     = New(KindNotFound, "request_not_found")
	ErrApplicationNotFound = New(KindNotFound, "application_not_found")
	ErrInvalidBooking      = New(KindInvalidInput, "invalid_booking")
	ErrInvalidPrice        = New(KindInvalidInput, "invalid_price")
	ErrTutorNotOnboarded   = New(KindInvalidInput, "tutor_not_onboarded")
	ErrUnknownGateway      = New(KindInvalidInput, "unknown_provider")
	ErrNotTutor            = New(KindForbidden, "not_tutor")
	ErrNotStudent          = New(KindForbidden, "not_student")
	ErrRequestNotOpen      = New(KindConflict, "request_not_open")
	ErrAlreadyReviewed     = New(KindConflict, "already_reviewed")
)

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Reason returns the machine-readable reason for err, or "error".
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "error"
}

// HTTPStatus maps err to the status code synchronous endpoints respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindChecksumFailed:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a caller may retry the operation that produced err.
// Verification, authorization and configuration failures never are.
func Retryable(err error) bool {
	return KindOf(err) == KindUpstream
}
