package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// PaymentRepository handles the append-only payment event log.
// There is no update or delete: events are only ever inserted.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// FindAll returns payment events with pagination and search.
func (r *PaymentRepository) FindAll(ctx context.Context, limit, page int, query string) ([]models.PaymentEvent, int64, error) {
	var events []models.PaymentEvent
	var total int64

	db := r.db.WithContext(ctx).Model(&models.PaymentEvent{})

	if query != "" {
		search := "%" + query + "%"
		db = db.Where("order_id LIKE ? OR transaction_ref LIKE ? OR gateway LIKE ?",
			search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("created_at DESC, id DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// FindByBookingID returns the events of a booking, oldest first.
func (r *PaymentRepository) FindByBookingID(ctx context.Context, bookingID uint) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id ASC").Find(&events).Error
	return events, err
}

// Create appends a payment event.
func (r *PaymentRepository) Create(ctx context.Context, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CountPaid counts paid events for a booking.
func (r *PaymentRepository) CountPaid(ctx context.Context, bookingID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentEvent{}).
		Where("booking_id = ? AND status = ?", bookingID, models.EventPaid).
		Count(&count).Error
	return count, err
}

// SumPaidSince returns the number and total amount of paid events since t.
func (r *PaymentRepository) SumPaidSince(ctx context.Context, since time.Time) (int64, int64, error) {
	var row struct {
		Count int64
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.PaymentEvent{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("status = ? AND created_at >= ?", models.EventPaid, since).
		Scan(&row).Error
	return row.Count, row.Total, err
}
