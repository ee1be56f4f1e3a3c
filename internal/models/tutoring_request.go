package models

import "time"

type RequestStatus string

const (
	RequestOpen    RequestStatus = "open"
	RequestMatched RequestStatus = "matched"
)

// TutoringRequest maps to the `tutoring_requests` table. A tutor accepting an
// open request turns it into a booking.
type TutoringRequest struct {
	ID        uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StudentID string        `gorm:"column:student_id;size:64;index;not null" json:"student_id"`
	TutorID   *string       `gorm:"column:tutor_id;size:64;index" json:"tutor_id"`
	Subject   string        `gorm:"column:subject;size:255" json:"subject"`
	District  string        `gorm:"column:district;size:255" json:"district"`
	Location  string        `gorm:"column:location;size:500" json:"location"`
	StartTime time.Time     `gorm:"column:start_time" json:"start_time"`
	EndTime   time.Time     `gorm:"column:end_time" json:"end_time"`
	Price     int64         `gorm:"column:price;not null" json:"price"`
	Status    RequestStatus `gorm:"column:status;size:16;not null;default:open;index" json:"status"`
	CreatedAt time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (TutoringRequest) TableName() string {
	return "tutoring_requests"
}
