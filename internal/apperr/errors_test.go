package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSpecificErrorsMatchTheirKind(t *testing.T) {
	wrapped := fmt.Errorf("confirm cash: %w", ErrNotTutor)

	if !errors.Is(wrapped, ErrForbidden) {
		t.Error("ErrNotTutor should match ErrForbidden")
	}
	if !errors.Is(wrapped, ErrNotTutor) {
		t.Error("ErrNotTutor should match itself")
	}
	if errors.Is(wrapped, ErrNotStudent) {
		t.Error("ErrNotTutor must not match ErrNotStudent")
	}
	if errors.Is(ErrForbidden, ErrNotTutor) {
		t.Error("generic kind must not match a specific error")
	}
}

func TestHTTPStatusAndReason(t *testing.T) {
	tests := []struct {
		err    error
		status int
		reason string
	}{
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("x: %w", ErrNotStudent), http.StatusForbidden, "not_student"},
		{ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
		{ErrTutorNotOnboarded, http.StatusBadRequest, "tutor_not_onboarded"},
		{ErrChecksumFailed, http.StatusBadRequest, "checksum_failed"},
		{ErrAlreadyReviewed, http.StatusConflict, "already_reviewed"},
		{fmt.Errorf("%w: timeout", ErrUpstream), http.StatusBadGateway, "upstream_failure"},
		{errors.New("db down"), http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.status)
		}
		if got := Reason(tt.err); got != tt.reason {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.reason)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(fmt.Errorf("%w: 502", ErrUpstream)) {
		t.Error("upstream failures are retryable")
	}
	for _, err := range []error{ErrChecksumFailed, ErrNotConfigured, ErrForbidden, errors.New("x")} {
		if Retryable(err) {
			t.Errorf("Retryable(%v) = true", err)
		}
	}
}
