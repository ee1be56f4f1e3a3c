// Package approval implements the tutor application review workflow.
package approval

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tutorlink/internal/apperr"
	"tutorlink/internal/models"
	"tutorlink/internal/pkg/besteffort"
	"tutorlink/internal/pkg/utils"
	"tutorlink/internal/repository"
)

// DefaultPricePerHour is used for approved tutors who did not state a price.
const DefaultPricePerHour int64 = 200000

// Reporter posts a text report to the admin channel.
type Reporter interface {
	Report(ctx context.Context, text string) error
}

// Application is what an applicant submits.
type Application struct {
	FullName     string   `json:"fullName" validate:"required,max=255"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"max=64"`
	Subjects     []string `json:"subjects" validate:"dive,required"`
	Districts    []string `json:"districts" validate:"dive,required"`
	PricePerHour *int64   `json:"pricePerHour" validate:"omitempty,gt=0"`
	Bio          string   `json:"bio"`
	EvidenceURL  string   `json:"evidenceUrl" validate:"omitempty,url"`
}

type Options struct {
	Reporter Reporter
	Runner   *besteffort.Runner
	Now      func() time.Time
}

// Service reviews tutor applications. Every review operation requires an admin.
type Service struct {
	db       *gorm.DB
	apps     *repository.ApplicationRepository
	profiles *repository.ProfileRepository
	reporter Reporter
	runner   *besteffort.Runner
	logger   *zap.Logger
	now      func() time.Time
}

func New(db *gorm.DB, opts Options, logger *zap.Logger) *Service {
	s := &Service{
		db:       db,
		apps:     repository.NewApplicationRepository(db),
		profiles: repository.NewProfileRepository(db),
		reporter: opts.Reporter,
		runner:   opts.Runner,
		logger:   logger,
		now:      opts.Now,
	}
	if s.runner == nil {
		s.runner = besteffort.New(logger, 10*time.Second)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.runner.Wait()
}

// Submit stores a pending application for the caller and notifies admins.
func (s *Service) Submit(ctx context.Context, actorID string, in Application) (*models.TutorApplication, error) {
	if actorID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", apperr.ErrInvalidInput)
	}
	if in.PricePerHour != nil && *in.PricePerHour <= 0 {
		return nil, apperr.ErrInvalidPrice
	}

	pending := models.ApplicationPending
	app := &models.TutorApplication{
		UserID:       actorID,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Subjects:     datatypes.NewJSONSlice(in.Subjects),
		Districts:    datatypes.NewJSONSlice(in.Districts),
		PricePerHour: in.PricePerHour,
		Bio:          in.Bio,
		EvidenceURL:  in.EvidenceURL,
		Status:       &pending,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.logger.Info("Tutor application submitted", zap.Uint("application_id", app.ID), zap.String("user_id", actorID))

	if s.reporter != nil {
		text := fmt.Sprintf("<b>New tutor application #%d</b>\n%s", app.ID, html.EscapeString(app.FullName))
		if app.PricePerHour != nil {
			text += "\nPrice: " + utils.FormatVND(*app.PricePerHour) + "/h"
		}
		s.runner.Go(ctx, "notify_application", func(ctx context.Context) error {
			return s.reporter.Report(ctx, text)
		})
	}
	return app, nil
}

// ListPending returns undecided applications, newest first.
func (s *Service) ListPending(ctx context.Context, actorID string) ([]models.TutorApplication, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	apps, err := s.apps.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending applications: %w", err)
	}
	return apps, nil
}

// Approve accepts the application, promotes the applicant to tutor and
// publishes their tutor profile.
func (s *Service) Approve(ctx context.Context, actorID string, id uint) (*models.TutorApplication, error) {
	return s.review(ctx, actorID, id, models.ApplicationApproved)
}

// Reject declines the application.
func (s *Service) Reject(ctx context.Context, actorID string, id uint) (*models.TutorApplication, error) {
	return s.review(ctx, actorID, id, models.ApplicationRejected)
}

func (s *Service) review(ctx context.Context, actorID string, id uint, status models.ApplicationStatus) (*models.TutorApplication, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	var app *models.TutorApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		apps := s.apps.WithTx(tx)

		rows, err := apps.MarkReviewed(ctx, id, status, actorID, s.now())
		if err != nil {
			return fmt.Errorf("review application %d: %w", id, err)
		}
		app, err = apps.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrApplicationNotFound
		}
		if err != nil {
			return fmt.Errorf("load application %d: %w", id, err)
		}
		if rows == 0 {
			return apperr.ErrAlreadyReviewed
		}
		if status != models.ApplicationApproved {
			return nil
		}
		return promote(ctx, s.profiles.WithTx(tx), app, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tutor application reviewed",
		zap.Uint("application_id", id),
		zap.String("status", string(status)),
		zap.String("reviewer", actorID),
	)
	return app, nil
}

func promote(ctx context.Context, profiles *repository.ProfileRepository, app *models.TutorApplication, now time.Time) error {
	if err := profiles.UpsertRole(ctx, &models.Profile{
		ID:        app.UserID,
		FullName:  app.FullName,
		Email:     app.Email,
		Role:      models.RoleTutor,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("promote %s: %w", app.UserID, err)
	}

	price := DefaultPricePerHour
	if app.PricePerHour != nil && *app.PricePerHour > 0 {
		price = *app.PricePerHour
	}
	if err := profiles.UpsertTutorProfile(ctx, &models.TutorProfile{
		TutorID:      app.UserID,
		Subjects:     app.Subjects,
		Districts:    app.Districts,
		PricePerHour: price,
		Bio:          app.Bio,
		UpdatedAt:    now,
	}); err != nil {
		return fmt.Errorf("tutor profile %s: %w", app.UserID, err)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, actorID string) error {
	if actorID == "" {
		return apperr.ErrUnauthorized
	}
	p, err := s.profiles.FindByID(ctx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("load profile %s: %w", actorID, err)
	}
	if p.Role != models.RoleAdmin {
		return apperr.ErrForbidden
	}
	return nil
}
