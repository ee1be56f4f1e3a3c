package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// BookingRepository handles booking database operations.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// FindByID returns a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// UpdateStatusUnlessPaid sets payment_status in a single conditional statement.
// A paid booking is never matched, so the returned row count is 0 for it.
func (r *BookingRepository) UpdateStatusUnlessPaid(ctx context.Context, id uint, status models.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected, res.Error
}

// FindStale returns bookings in one of statuses last touched before the cutoff.
func (r *BookingRepository) FindStale(ctx context.Context, statuses []models.PaymentStatus, before time.Time, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("payment_status IN ? AND updated_at < ?", statuses, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// FindByParty returns bookings where userID is the student or the tutor.
func (r *BookingRepository) FindByParty(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("student_id = ? OR tutor_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}
