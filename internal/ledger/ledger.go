// Package ledger owns booking rows and their payment_status transitions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorlink/internal/apperr"
	"tutorlink/internal/models"
	"tutorlink/internal/repository"
)

var feeRate = decimal.RequireFromString("0.20")

// PlatformFee is round(price * 0.20), half away from zero, in whole currency units.
func PlatformFee(price int64) int64 {
	return decimal.NewFromInt(price).Mul(feeRate).Round(0).IntPart()
}

// NewBooking is the input for CreateBooking.
type NewBooking struct {
	RequestID uint
	TutorID   string
	StudentID string
	Start     time.Time
	End       time.Time
	Location  string
	Price     int64
}

// Transition describes the outcome of a conditional status update.
type Transition struct {
	BookingID   uint
	Status      models.PaymentStatus
	Changed     bool
	AlreadyPaid bool
}

// Ledger creates bookings and moves their payment status. Paid is terminal.
type Ledger struct {
	db       *gorm.DB
	bookings *repository.BookingRepository
	requests *repository.RequestRepository
	logger   *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{
		db:       db,
		bookings: repository.NewBookingRepository(db),
		requests: repository.NewRequestRepository(db),
		logger:   logger,
	}
}

// Tx returns a copy of the ledger whose statements run inside tx.
func (l *Ledger) Tx(tx *gorm.DB) *Ledger {
	return &Ledger{
		db:       tx,
		bookings: l.bookings.WithTx(tx),
		requests: l.requests.WithTx(tx),
		logger:   l.logger,
	}
}

// Get returns a booking or apperr.ErrBookingNotFound.
func (l *Ledger) Get(ctx context.Context, id uint) (*models.Booking, error) {
	if id == 0 {
		return nil, apperr.ErrInvalidBooking
	}
	b, err := l.bookings.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	return b, nil
}

// ForParty lists the bookings userID takes part in, newest first.
func (l *Ledger) ForParty(ctx context.Context, userID string) ([]models.Booking, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	bookings, err := l.bookings.FindByParty(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings of %s: %w", userID, err)
	}
	return bookings, nil
}

// CreateBooking inserts an unpaid booking with its platform fee.
func (l *Ledger) CreateBooking(ctx context.Context, in NewBooking) (*models.Booking, error) {
	if in.Price <= 0 {
		return nil, apperr.ErrInvalidPrice
	}
	if in.TutorID == "" || in.StudentID == "" {
		return nil, apperr.ErrInvalidInput
	}

	b := &models.Booking{
		RequestID:     in.RequestID,
		StudentID:     in.StudentID,
		TutorID:       in.TutorID,
		StartTime:     in.Start,
		EndTime:       in.End,
		Location:      in.Location,
		Price:         in.Price,
		PlatformFee:   PlatformFee(in.Price),
		PaymentStatus: models.PaymentUnpaid,
	}
	if err := l.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	l.logger.Info("Booking created",
		zap.Uint("booking_id", b.ID),
		zap.String("tutor_id", b.TutorID),
		zap.Int64("price", b.Price),
		zap.Int64("platform_fee", b.PlatformFee),
	)
	return b, nil
}

// AcceptRequest matches an open tutoring request to tutorID and creates its booking
// in one transaction.
func (l *Ledger) AcceptRequest(ctx context.Context, tutorID string, requestID uint) (*models.Booking, error) {
	if tutorID == "" {
		return nil, apperr.ErrUnauthorized
	}

	var booking *models.Booking
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txl := l.Tx(tx)

		req, err := txl.requests.FindByID(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("load request %d: %w", requestID, err)
		}
		if req.StudentID == tutorID {
			return apperr.ErrForbidden
		}

		rows, err := txl.requests.MarkMatched(ctx, requestID, tutorID)
		if err != nil {
			return fmt.Errorf("match request %d: %w", requestID, err)
		}
		if rows == 0 {
			return apperr.ErrRequestNotOpen
		}

		booking, err = txl.CreateBooking(ctx, NewBooking{
			RequestID: req.ID,
			TutorID:   tutorID,
			StudentID: req.StudentID,
			Start:     req.StartTime,
			End:       req.EndTime,
			Location:  req.Location,
			Price:     req.Price,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (l *Ledger) MarkPaid(ctx context.Context, id uint) (Transition, error) {
	return l.transition(ctx, id, models.PaymentPaid)
}

func (l *Ledger) MarkFailed(ctx context.Context, id uint) (Transition, error) {
	return l.transition(ctx, id, models.PaymentFailed)
}

func (l *Ledger) MarkCanceled(ctx context.Context, id uint) (Transition, error) {
	return l.transition(ctx, id, models.PaymentCanceled)
}

func (l *Ledger) MarkPendingReview(ctx context.Context, id uint) (Transition, error) {
	return l.transition(ctx, id, models.PaymentPendingReview)
}

// transition applies a status with a single conditional UPDATE. A paid booking is
// left untouched and reported through Transition.AlreadyPaid.
func (l *Ledger) transition(ctx context.Context, id uint, status models.PaymentStatus) (Transition, error) {
	t := Transition{BookingID: id, Status: status}
	if id == 0 {
		return t, apperr.ErrInvalidBooking
	}

	rows, err := l.bookings.UpdateStatusUnlessPaid(ctx, id, status)
	if err != nil {
		return t, fmt.Errorf("update booking %d to %s: %w", id, status, err)
	}
	if rows > 0 {
		t.Changed = true
		return t, nil
	}

	b, err := l.Get(ctx, id)
	if err != nil {
		return t, err
	}
	t.Status = b.PaymentStatus
	t.AlreadyPaid = b.IsPaid()
	return t, nil
}
