package payment

import (
	"context"

	"tutorlink/internal/apperr"
	"tutorlink/internal/models"
)

// Checkout describes one attempt to pay for a booking.
type Checkout struct {
	Booking *models.Booking
	// Tutor is required by the card gateway for the destination split.
	Tutor *models.Profile
	// AppURL is the public web app origin, CallbackURL the public origin of this service.
	AppURL      string
	CallbackURL string
	ClientIP    string
}

// PaymentResult contains the result of a payment creation.
type PaymentResult struct {
	OrderID     string `json:"order_id,omitempty"`
	PaymentURL  string `json:"payment_url,omitempty"`
	AlreadyPaid bool   `json:"already_paid,omitempty"`
}

// Gateway defines the interface for payment gateway implementations.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() string

	// CreatePayment returns a redirect URL for the payer, or AlreadyPaid.
	CreatePayment(ctx context.Context, co Checkout) (*PaymentResult, error)
}

// precheck applies the booking rules shared by every gateway. A non-nil
// result means the booking is already paid and no session must be created.
func precheck(b *models.Booking) (*PaymentResult, error) {
	if b == nil || b.ID == 0 {
		return nil, apperr.ErrInvalidBooking
	}
	if b.Price <= 0 {
		return nil, apperr.ErrInvalidPrice
	}
	if b.IsPaid() {
		return &PaymentResult{AlreadyPaid: true}, nil
	}
	return nil, nil
}
