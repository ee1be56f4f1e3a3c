package reconcile

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"tutorlink/internal/models"
	"tutorlink/internal/payment"
)

// Delivery tells server-to-server notifications apart from browser returns.
type Delivery int

const (
	DeliveryIPN Delivery = iota
	DeliveryReturn
)

func (d Delivery) String() string {
	if d == DeliveryReturn {
		return "return"
	}
	return "ipn"
}

// unsuccessfulStatus is failed for an IPN and canceled for a payer who came
// back without paying.
func unsuccessfulStatus(d Delivery) models.EventStatus {
	if d == DeliveryReturn {
		return models.EventCanceled
	}
	return models.EventFailed
}

// ApplyWalletCallback applies a verified wallet delivery.
func (e *Engine) ApplyWalletCallback(ctx context.Context, cb *payment.WalletCallback, raw datatypes.JSON, d Delivery) (*Result, error) {
	status := unsuccessfulStatus(d)
	if cb.Success() {
		status = models.EventPaid
	}
	return e.ApplyGatewayOutcome(ctx, Outcome{
		Gateway:        models.GatewayWallet,
		OrderID:        cb.OrderID,
		TransactionRef: cb.TransID,
		Amount:         cb.Amount,
		Currency:       "VND",
		Status:         status,
		Raw:            raw,
	})
}

// ApplyBankCallback applies a verified bank-wallet delivery.
func (e *Engine) ApplyBankCallback(ctx context.Context, cb *payment.BankCallback, raw datatypes.JSON, d Delivery) (*Result, error) {
	status := unsuccessfulStatus(d)
	if cb.Success() {
		status = models.EventPaid
	}
	return e.ApplyGatewayOutcome(ctx, Outcome{
		Gateway:        models.GatewayBank,
		OrderID:        cb.OrderID,
		TransactionRef: cb.TransactionNo,
		Amount:         cb.Amount,
		Currency:       cb.Currency,
		Status:         status,
		Raw:            raw,
	})
}

// HandleWalletCallback applies a verified wallet delivery. Datastore failures
// are logged and swallowed so the delivery can still be acknowledged; ok is
// false when the outcome was not stored.
func (e *Engine) HandleWalletCallback(ctx context.Context, cb *payment.WalletCallback, raw datatypes.JSON, d Delivery) (res *Result, ok bool) {
	ok = e.runner.Do(ctx, "wallet_"+d.String(), func(ctx context.Context) error {
		var err error
		res, err = e.ApplyWalletCallback(ctx, cb, raw, d)
		return err
	})
	return res, ok
}

// HandleBankCallback is HandleWalletCallback for the bank-wallet provider.
func (e *Engine) HandleBankCallback(ctx context.Context, cb *payment.BankCallback, raw datatypes.JSON, d Delivery) (res *Result, ok bool) {
	ok = e.runner.Do(ctx, "bank_"+d.String(), func(ctx context.Context) error {
		var err error
		res, err = e.ApplyBankCallback(ctx, cb, raw, d)
		return err
	})
	return res, ok
}

// HandleCardEvent applies a verified card webhook event. Only completed
// checkouts and succeeded payment intents carrying a booking id move money;
// other events are ignored. Failures are logged and never returned, so the
// webhook is always acknowledged; ok is false when the outcome was not stored.
func (e *Engine) HandleCardEvent(ctx context.Context, ev *payment.CardEvent) (res *Result, ok bool) {
	if ev == nil {
		return nil, true
	}
	switch ev.Type {
	case payment.CardEventCheckoutCompleted, payment.CardEventPaymentIntentSucceeded:
	default:
		e.logger.Debug("Card event ignored", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return nil, true
	}
	if ev.BookingID == 0 {
		e.logger.Warn("Card event without booking metadata ignored",
			zap.String("event_id", ev.ID),
			zap.String("object_id", ev.ObjectID),
		)
		return nil, true
	}

	orderID := ev.ObjectID
	if orderID == "" {
		orderID = ev.ID
	}

	ok = e.runner.Do(ctx, "card_event", func(ctx context.Context) error {
		var err error
		res, err = e.ApplyGatewayOutcome(ctx, Outcome{
			Gateway:        models.GatewayCard,
			OrderID:        orderID,
			BookingID:      ev.BookingID,
			TransactionRef: ev.ID,
			Amount:         ev.Amount,
			Currency:       ev.Currency,
			Status:         models.EventPaid,
			Raw:            datatypes.JSON(ev.Raw),
		})
		return err
	})
	return res, ok
}
