// Package reconcile turns verified gateway outcomes and manual payment actions
// into booking status transitions and payment events.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/ledger"
	"tutorlink/internal/models"
	"tutorlink/internal/payment"
	"tutorlink/internal/pkg/besteffort"
	"tutorlink/internal/pkg/utils"
	"tutorlink/internal/repository"
)

// Publisher sends payment notifications to the message bus.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Reporter posts a text report to the admin channel.
type Reporter interface {
	Report(ctx context.Context, text string) error
}

// Outcome is a verified result from a payment path.
type Outcome struct {
	Gateway models.Gateway
	OrderID string
	// BookingID overrides the id parsed from OrderID when set.
	BookingID      uint
	TransactionRef string
	Amount         int64
	Currency       string
	Status         models.EventStatus
	Raw            datatypes.JSON
}

// Result reports what ApplyGatewayOutcome did.
type Result struct {
	BookingID  uint
	Event      *models.PaymentEvent
	Transition ledger.Transition
	// Duplicate is set when a paid outcome arrived for an already paid
	// booking. No event is appended in that case.
	Duplicate bool
}

// Options carries the optional collaborators of an Engine.
type Options struct {
	Gateways  []payment.Gateway
	Card      *payment.CardGateway
	Transfer  config.TransferConfig
	App       config.AppConfig
	Publisher Publisher
	Reporter  Reporter
	Runner    *besteffort.Runner
	Now       func() time.Time
}

// Engine reconciles payments against the booking ledger.
type Engine struct {
	db        *gorm.DB
	ledger    *ledger.Ledger
	payments  *repository.PaymentRepository
	profiles  *repository.ProfileRepository
	gateways  map[string]payment.Gateway
	card      *payment.CardGateway
	transfer  config.TransferConfig
	app       config.AppConfig
	publisher Publisher
	reporter  Reporter
	runner    *besteffort.Runner
	logger    *zap.Logger
	now       func() time.Time
}

func New(db *gorm.DB, l *ledger.Ledger, opts Options, logger *zap.Logger) *Engine {
	e := &Engine{
		db:        db,
		ledger:    l,
		payments:  repository.NewPaymentRepository(db),
		profiles:  repository.NewProfileRepository(db),
		gateways:  make(map[string]payment.Gateway, len(opts.Gateways)+1),
		card:      opts.Card,
		transfer:  opts.Transfer,
		app:       opts.App,
		publisher: opts.Publisher,
		reporter:  opts.Reporter,
		runner:    opts.Runner,
		logger:    logger,
		now:       opts.Now,
	}
	for _, gw := range opts.Gateways {
		e.gateways[gw.Name()] = gw
	}
	if opts.Card != nil {
		e.gateways[opts.Card.Name()] = opts.Card
	}
	if e.runner == nil {
		e.runner = besteffort.New(logger, 10*time.Second)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Wait blocks until background notifications have finished.
func (e *Engine) Wait() {
	e.runner.Wait()
}

// ApplyGatewayOutcome records an outcome and moves the booking status in one
// transaction. Paid bookings are never changed, and a second paid outcome for
// the same booking is suppressed. An order id that does not resolve to a
// booking still gets its event, with a NULL booking id.
func (e *Engine) ApplyGatewayOutcome(ctx context.Context, o Outcome) (*Result, error) {
	if o.OrderID == "" {
		return nil, fmt.Errorf("%w: empty order id", apperr.ErrInvalidInput)
	}
	switch o.Status {
	case models.EventPaid, models.EventFailed, models.EventCanceled, models.EventSubmitted:
	default:
		return nil, fmt.Errorf("%w: unknown event status %q", apperr.ErrInvalidInput, o.Status)
	}

	bookingID := o.BookingID
	if bookingID == 0 {
		bookingID = payment.ParseOrderID(o.OrderID)
	}
	if o.Currency == "" {
		o.Currency = "VND"
	}

	res := &Result{}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eventBooking *uint
		if bookingID != 0 {
			t, err := applyStatus(ctx, e.ledger.Tx(tx), bookingID, o.Status)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
			case err != nil:
				return err
			default:
				id := bookingID
				eventBooking = &id
				res.BookingID = id
				res.Transition = t
				if o.Status == models.EventPaid && t.AlreadyPaid {
					res.Duplicate = true
					return nil
				}
			}
		}

		event := &models.PaymentEvent{
			BookingID: eventBooking,
			Gateway:   o.Gateway,
			OrderID:   o.OrderID,
			Amount:    o.Amount,
			Currency:  o.Currency,
			Status:    o.Status,
			RawData:   o.Raw,
		}
		if o.TransactionRef != "" {
			ref := o.TransactionRef
			event.TransactionRef = &ref
		}
		if err := e.payments.WithTx(tx).Create(ctx, event); err != nil {
			return fmt.Errorf("append payment event: %w", err)
		}
		res.Event = event
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to apply payment outcome",
			zap.String("gateway", string(o.Gateway)),
			zap.String("order_id", o.OrderID),
			zap.Error(err),
		)
		return nil, err
	}

	switch {
	case res.Duplicate:
		e.logger.Warn("Duplicate paid outcome ignored",
			zap.String("gateway", string(o.Gateway)),
			zap.String("order_id", o.OrderID),
			zap.Uint("booking_id", res.BookingID),
		)
	case res.BookingID == 0:
		e.logger.Warn("Payment event for unknown booking",
			zap.String("gateway", string(o.Gateway)),
			zap.String("order_id", o.OrderID),
			zap.String("status", string(o.Status)),
		)
	default:
		e.logger.Info("Payment outcome applied",
			zap.String("gateway", string(o.Gateway)),
			zap.String("order_id", o.OrderID),
			zap.Uint("booking_id", res.BookingID),
			zap.String("status", string(o.Status)),
			zap.Bool("changed", res.Transition.Changed),
		)
	}

	if res.Transition.Changed {
		e.announce(ctx, o, res)
	}
	return res, nil
}

func applyStatus(ctx context.Context, l *ledger.Ledger, id uint, status models.EventStatus) (ledger.Transition, error) {
	switch status {
	case models.EventPaid:
		return l.MarkPaid(ctx, id)
	case models.EventFailed:
		return l.MarkFailed(ctx, id)
	case models.EventCanceled:
		return l.MarkCanceled(ctx, id)
	default:
		return l.MarkPendingReview(ctx, id)
	}
}

// PaymentMessage is the body published for every state-changing outcome.
type PaymentMessage struct {
	BookingID uint               `json:"booking_id"`
	Gateway   models.Gateway     `json:"gateway"`
	OrderID   string             `json:"order_id"`
	Status    models.EventStatus `json:"status"`
	Amount    int64              `json:"amount"`
	Currency  string             `json:"currency"`
	At        time.Time          `json:"at"`
}

// announce publishes and reports a state change in the background.
func (e *Engine) announce(ctx context.Context, o Outcome, res *Result) {
	msg := PaymentMessage{
		BookingID: res.BookingID,
		Gateway:   o.Gateway,
		OrderID:   o.OrderID,
		Status:    o.Status,
		Amount:    o.Amount,
		Currency:  o.Currency,
		At:        e.now(),
	}
	if e.publisher != nil {
		e.runner.Go(ctx, "publish_payment", func(ctx context.Context) error {
			return e.publisher.PublishJSON(ctx, "payment."+string(o.Status), msg)
		})
	}
	if e.reporter != nil {
		text := fmt.Sprintf("<b>Booking #%d</b> %s via %s\nAmount: %s\nOrder: <code>%s</code>",
			res.BookingID, o.Status, o.Gateway, utils.FormatVND(o.Amount), o.OrderID)
		e.runner.Go(ctx, "report_payment", func(ctx context.Context) error {
			return e.reporter.Report(ctx, text)
		})
	}
}
