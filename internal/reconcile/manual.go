package reconcile

import (
	"context"

	"go.uber.org/zap"

	"tutorlink/internal/ledger"
	"tutorlink/internal/models"
	"tutorlink/internal/payment"
)

// DeclareCash records the student's claim of a cash payment. The booking waits
// for the tutor's confirmation in pending_review; no event is written.
func (e *Engine) DeclareCash(ctx context.Context, actorID string, bookingID uint) (ledger.Transition, error) {
	b, err := e.bookingForStudent(ctx, actorID, bookingID)
	if err != nil {
		return ledger.Transition{}, err
	}
	t, err := e.ledger.MarkPendingReview(ctx, b.ID)
	if err != nil {
		return t, err
	}
	e.logger.Info("Cash payment declared",
		zap.Uint("booking_id", b.ID),
		zap.Bool("changed", t.Changed),
		zap.Bool("already_paid", t.AlreadyPaid),
	)
	return t, nil
}

// ConfirmCash lets the tutor confirm a cash payment, which marks the booking
// paid. Confirming an already paid booking writes nothing.
func (e *Engine) ConfirmCash(ctx context.Context, actorID string, bookingID uint) (*Result, error) {
	b, err := e.bookingForTutor(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsPaid() {
		return &Result{
			BookingID:  b.ID,
			Transition: ledger.Transition{BookingID: b.ID, Status: models.PaymentPaid, AlreadyPaid: true},
			Duplicate:  true,
		}, nil
	}

	raw := payment.NewRawPayload()
	raw.Set("from", "tutor")
	return e.ApplyGatewayOutcome(ctx, Outcome{
		Gateway:   models.GatewayCash,
		OrderID:   payment.NewOrderID(payment.OrderPrefixCash, b.ID, e.now()),
		BookingID: b.ID,
		Amount:    b.Price,
		Currency:  "VND",
		Status:    models.EventPaid,
		Raw:       raw.JSON(),
	})
}

// SubmitBankProof records that the student made a manual bank transfer. The
// booking moves to pending_review until an admin or a gateway confirms it.
func (e *Engine) SubmitBankProof(ctx context.Context, actorID string, bookingID uint) (*Result, error) {
	b, err := e.bookingForStudent(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}

	raw := payment.NewRawPayload()
	raw.Set("method", "vietqr")
	raw.Set("note", payment.TransferReference(b.ID))
	return e.ApplyGatewayOutcome(ctx, Outcome{
		Gateway:   models.GatewayBank,
		OrderID:   payment.NewOrderID(payment.OrderPrefixGateway, b.ID, e.now()),
		BookingID: b.ID,
		Amount:    b.Price,
		Currency:  "VND",
		Status:    models.EventSubmitted,
		Raw:       raw.JSON(),
	})
}
