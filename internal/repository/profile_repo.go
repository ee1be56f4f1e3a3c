package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tutorlink/internal/models"
)

// ProfileRepository handles account profiles and tutor profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// FindByID finds a profile by identity subject.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// UpsertRole creates the profile if missing, otherwise only updates its role.
func (r *ProfileRepository) UpsertRole(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(profile).Error
}

// SetCardAccountID stores the card processor's connected-account id.
func (r *ProfileRepository) SetCardAccountID(ctx context.Context, id, accountID string) error {
	return r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"card_account_id": accountID,
			"updated_at":      time.Now(),
		}).Error
}

// FindTutorProfile returns the public tutor profile.
func (r *ProfileRepository) FindTutorProfile(ctx context.Context, tutorID string) (*models.TutorProfile, error) {
	var tp models.TutorProfile
	if err := r.db.WithContext(ctx).Where("tutor_id = ?", tutorID).First(&tp).Error; err != nil {
		return nil, err
	}
	return &tp, nil
}

// UpsertTutorProfile inserts or replaces a tutor profile.
func (r *ProfileRepository) UpsertTutorProfile(ctx context.Context, tp *models.TutorProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tutor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"subjects", "districts", "price_per_hour", "bio", "updated_at"}),
	}).Create(tp).Error
}
