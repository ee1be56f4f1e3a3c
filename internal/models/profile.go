package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is an account role.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Profile maps to the `profiles` table. ID is the identity provider's subject.
type Profile struct {
	ID            string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	FullName      string    `gorm:"column:full_name;size:255" json:"full_name"`
	Email         string    `gorm:"column:email;size:255" json:"email"`
	Role          Role      `gorm:"column:role;size:16;not null;default:student" json:"role"`
	CardAccountID string    `gorm:"column:card_account_id;size:128" json:"card_account_id,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// TutorProfile maps to the `tutor_profiles` table, keyed by the tutor's identity.
type TutorProfile struct {
	TutorID      string                      `gorm:"column:tutor_id;primaryKey;size:64" json:"tutor_id"`
	Subjects     datatypes.JSONSlice[string] `gorm:"column:subjects" json:"subjects"`
	Districts    datatypes.JSONSlice[string] `gorm:"column:districts" json:"districts"`
	PricePerHour int64                       `gorm:"column:price_per_hour;not null" json:"price_per_hour"`
	Bio          string                      `gorm:"column:bio;type:text" json:"bio"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at" json:"updated_at"`
}

func (TutorProfile) TableName() string {
	return "tutor_profiles"
}
