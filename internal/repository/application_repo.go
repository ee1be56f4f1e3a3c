package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// ApplicationRepository handles tutor applications.
type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ApplicationRepository) WithTx(tx *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: tx}
}

// Create inserts a new application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.TutorApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// FindByID returns an application by ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id uint) (*models.TutorApplication, error) {
	var app models.TutorApplication
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// ListPending returns undecided applications, newest first. NULL status counts as pending.
func (r *ApplicationRepository) ListPending(ctx context.Context) ([]models.TutorApplication, error) {
	var apps []models.TutorApplication
	err := r.db.WithContext(ctx).
		Where("status IS NULL OR status = ?", models.ApplicationPending).
		Order("created_at DESC, id DESC").
		Find(&apps).Error
	return apps, err
}

// MarkReviewed records a decision only if the application is still pending.
// Returns the number of rows changed (0 when already decided or missing).
func (r *ApplicationRepository) MarkReviewed(ctx context.Context, id uint, status models.ApplicationStatus, reviewer string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.TutorApplication{}).
		Where("id = ? AND (status IS NULL OR status = ?)", id, models.ApplicationPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": at,
		})
	return res.RowsAffected, res.Error
}
