package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorlink/internal/apperr"
	"tutorlink/internal/models"
	"tutorlink/internal/payment"
)

// CreatePayment starts a gateway checkout for the booking's student.
func (e *Engine) CreatePayment(ctx context.Context, actorID, provider string, bookingID uint, clientIP string) (*payment.PaymentResult, error) {
	if actorID == "" {
		return nil, apperr.ErrUnauthorized
	}
	gw, ok := e.gateways[provider]
	if !ok {
		return nil, apperr.ErrUnknownGateway
	}

	b, err := e.ledger.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != actorID {
		return nil, apperr.ErrNotStudent
	}

	co := payment.Checkout{
		Booking:     b,
		AppURL:      e.app.BaseURL,
		CallbackURL: e.app.CallbackURL,
		ClientIP:    clientIP,
	}
	if provider == string(models.GatewayCard) && !b.IsPaid() {
		tutor, err := e.profiles.FindByID(ctx, b.TutorID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperr.ErrTutorNotOnboarded
		case err != nil:
			return nil, fmt.Errorf("load tutor %s: %w", b.TutorID, err)
		}
		co.Tutor = tutor
	}

	res, err := gw.CreatePayment(ctx, co)
	if err != nil {
		e.logger.Warn("Failed to create payment",
			zap.String("provider", provider),
			zap.Uint("booking_id", b.ID),
			zap.Error(err),
		)
		return nil, err
	}
	if res.AlreadyPaid {
		e.logger.Info("Payment skipped for paid booking", zap.String("provider", provider), zap.Uint("booking_id", b.ID))
		return res, nil
	}
	e.logger.Info("Payment created",
		zap.String("provider", provider),
		zap.Uint("booking_id", b.ID),
		zap.String("order_id", res.OrderID),
	)
	return res, nil
}

// Onboard returns a card processor onboarding link for the tutor, creating
// and storing a connected account on first use.
func (e *Engine) Onboard(ctx context.Context, actorID string) (*payment.Onboarding, error) {
	if actorID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if e.card == nil {
		return nil, apperr.ErrNotConfigured
	}
	profile, err := e.profiles.FindByID(ctx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotTutor
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", actorID, err)
	}

	returnURL := strings.TrimRight(e.app.BaseURL, "/") + "/tutor/" + actorID
	ob, err := e.card.Onboard(ctx, profile, returnURL)
	if ob != nil && ob.NewAccount {
		if serr := e.profiles.SetCardAccountID(ctx, actorID, ob.AccountID); serr != nil {
			return nil, fmt.Errorf("store card account: %w", serr)
		}
		e.logger.Info("Card account created", zap.String("tutor_id", actorID), zap.String("account_id", ob.AccountID))
	}
	if err != nil {
		return nil, err
	}
	return ob, nil
}

// TransferInstructions returns manual bank transfer details for the booking's student.
func (e *Engine) TransferInstructions(ctx context.Context, actorID string, bookingID uint) (*payment.TransferInstructions, error) {
	b, err := e.bookingForStudent(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}
	return payment.NewTransferInstructions(e.transfer, b)
}

// BookingDetail is a booking with its payment history.
type BookingDetail struct {
	Booking  *models.Booking       `json:"booking"`
	Payments []models.PaymentEvent `json:"payments"`
}

// Booking returns a booking and its events to one of its parties or an admin.
func (e *Engine) Booking(ctx context.Context, actorID string, bookingID uint) (*BookingDetail, error) {
	if actorID == "" {
		return nil, apperr.ErrUnauthorized
	}
	b, err := e.ledger.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != actorID && b.TutorID != actorID {
		p, err := e.profiles.FindByID(ctx, actorID)
		if err != nil || p.Role != models.RoleAdmin {
			return nil, apperr.ErrForbidden
		}
	}
	events, err := e.payments.FindByBookingID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("load payments for booking %d: %w", b.ID, err)
	}
	return &BookingDetail{Booking: b, Payments: events}, nil
}

func (e *Engine) bookingForStudent(ctx context.Context, actorID string, bookingID uint) (*models.Booking, error) {
	if actorID == "" {
		return nil, apperr.ErrUnauthorized
	}
	b, err := e.ledger.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != actorID {
		return nil, apperr.ErrNotStudent
	}
	return b, nil
}

func (e *Engine) bookingForTutor(ctx context.Context, actorID string, bookingID uint) (*models.Booking, error) {
	if actorID == "" {
		return nil, apperr.ErrUnauthorized
	}
	b, err := e.ledger.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TutorID != actorID {
		return nil, apperr.ErrNotTutor
	}
	return b, nil
}
