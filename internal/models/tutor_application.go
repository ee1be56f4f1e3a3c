package models

import (
	"time"

	"gorm.io/datatypes"
)

// ApplicationStatus is the review state of a tutor application.
// A NULL status is treated as pending.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// TutorApplication maps to the `tutor_applications` table.
type TutorApplication struct {
	ID           uint                        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID       string                      `gorm:"column:user_id;size:64;index;not null" json:"user_id"`
	FullName     string                      `gorm:"column:full_name;size:255" json:"full_name"`
	Email        string                      `gorm:"column:email;size:255" json:"email"`
	Phone        string                      `gorm:"column:phone;size:64" json:"phone"`
	Subjects     datatypes.JSONSlice[string] `gorm:"column:subjects" json:"subjects"`
	Districts    datatypes.JSONSlice[string] `gorm:"column:districts" json:"districts"`
	PricePerHour *int64                      `gorm:"column:price_per_hour" json:"price_per_hour"`
	Bio          string                      `gorm:"column:bio;type:text" json:"bio"`
	EvidenceURL  string                      `gorm:"column:evidence_url;size:1000" json:"evidence_url"`
	Status       *ApplicationStatus          `gorm:"column:status;size:16;index" json:"status"`
	ReviewedBy   *string                     `gorm:"column:reviewed_by;size:64" json:"reviewed_by"`
	ReviewedAt   *time.Time                  `gorm:"column:reviewed_at" json:"reviewed_at"`
	CreatedAt    time.Time                   `gorm:"column:created_at;index" json:"created_at"`
}

func (TutorApplication) TableName() string {
	return "tutor_applications"
}

// Pending reports whether the application still awaits review.
func (a *TutorApplication) Pending() bool {
	return a.Status == nil || *a.Status == ApplicationPending
}
