package models

import "time"

// PaymentStatus is the aggregate payment state of a booking.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPendingReview PaymentStatus = "pending_review"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentCanceled      PaymentStatus = "canceled"
)

// Booking maps to the `bookings` table.
// Rows are never deleted; payment_status only changes through conditional updates.
type Booking struct {
	ID            uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RequestID     uint          `gorm:"column:request_id;index" json:"request_id"`
	StudentID     string        `gorm:"column:student_id;size:64;index;not null" json:"student_id"`
	TutorID       string        `gorm:"column:tutor_id;size:64;index;not null" json:"tutor_id"`
	StartTime     time.Time     `gorm:"column:start_time" json:"start_time"`
	EndTime       time.Time     `gorm:"column:end_time" json:"end_time"`
	Location      string        `gorm:"column:location;size:500" json:"location"`
	Price         int64         `gorm:"column:price;not null" json:"price"`
	PlatformFee   int64         `gorm:"column:platform_fee;not null" json:"platform_fee"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;size:32;not null;default:unpaid;index" json:"payment_status"`
	CreatedAt     time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentPaid
}
