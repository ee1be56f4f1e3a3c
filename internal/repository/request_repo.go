package repository

import (
	"context"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// RequestRepository handles tutoring requests.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

func (r *RequestRepository) Create(ctx context.Context, req *models.TutoringRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) FindByID(ctx context.Context, id uint) (*models.TutoringRequest, error) {
	var req models.TutoringRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// MarkMatched assigns tutorID to an open request. Returns rows changed.
func (r *RequestRepository) MarkMatched(ctx context.Context, id uint, tutorID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.TutoringRequest{}).
		Where("id = ? AND status = ?", id, models.RequestOpen).
		Updates(map[string]interface{}{
			"status":   models.RequestMatched,
			"tutor_id": tutorID,
		})
	return res.RowsAffected, res.Error
}
