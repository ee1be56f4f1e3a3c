package approval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tutorlink/internal/apperr"
	"tutorlink/internal/models"
	"tutorlink/internal/repository"
	"tutorlink/internal/testutil"
)

type recordingReporter struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingReporter) Report(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func newService(t *testing.T, reporter Reporter) (*Service, *repository.ProfileRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	profiles := repository.NewProfileRepository(db)
	for _, p := range []models.Profile{
		{ID: "admin-1", Role: models.RoleAdmin},
		{ID: "student-1", FullName: "Nguyen Van A", Role: models.RoleStudent},
	} {
		p := p
		if err := profiles.Create(context.Background(), &p); err != nil {
			t.Fatalf("Create profile: %v", err)
		}
	}
	svc := New(db, Options{
		Reporter: reporter,
		Now:      func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	}, zap.NewNop())
	return svc, profiles
}

func TestSubmitNotifiesAdmins(t *testing.T) {
	reporter := &recordingReporter{}
	svc, _ := newService(t, reporter)
	price := int64(250000)

	app, err := svc.Submit(context.Background(), "student-1", Application{
		FullName:     "Nguyen Van A",
		Subjects:     []string{"math"},
		PricePerHour: &price,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !app.Pending() || app.UserID != "student-1" {
		t.Errorf("application = %+v", app)
	}

	svc.Wait()
	if len(reporter.texts) != 1 || !strings.Contains(reporter.texts[0], "250,000 VND") {
		t.Errorf("reports = %v", reporter.texts)
	}

	if _, err := svc.Submit(context.Background(), "", Application{FullName: "x"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("anonymous: err = %v", err)
	}
	if _, err := svc.Submit(context.Background(), "student-1", Application{FullName: "  "}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank name: err = %v", err)
	}
}

func TestApprove(t *testing.T) {
	svc, profiles := newService(t, nil)
	ctx := context.Background()

	app, err := svc.Submit(ctx, "student-1", Application{
		FullName:  "Nguyen Van A",
		Subjects:  []string{"math", "physics"},
		Districts: []string{"district-1"},
		Bio:       "Physics graduate",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := svc.Approve(ctx, "admin-1", app.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status == nil || *got.Status != models.ApplicationApproved {
		t.Errorf("status = %v", got.Status)
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != "admin-1" || got.ReviewedAt == nil {
		t.Errorf("review stamp = %v %v", got.ReviewedBy, got.ReviewedAt)
	}

	p, err := profiles.FindByID(ctx, "student-1")
	if err != nil || p.Role != models.RoleTutor {
		t.Fatalf("profile = %+v (%v)", p, err)
	}
	tp, err := profiles.FindTutorProfile(ctx, "student-1")
	if err != nil {
		t.Fatalf("FindTutorProfile: %v", err)
	}
	if tp.PricePerHour != DefaultPricePerHour || len(tp.Subjects) != 2 {
		t.Errorf("tutor profile = %+v", tp)
	}

	if _, err := svc.Approve(ctx, "admin-1", app.ID); !errors.Is(err, apperr.ErrAlreadyReviewed) {
		t.Errorf("second approve: err = %v", err)
	}
	if _, err := svc.Reject(ctx, "admin-1", app.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("reject after approve: err = %v", err)
	}
}

func TestApproveCreatesMissingProfile(t *testing.T) {
	svc, profiles := newService(t, nil)
	ctx := context.Background()
	price := int64(320000)

	app, err := svc.Submit(ctx, "newcomer", Application{FullName: "Tran Thi B", PricePerHour: &price})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Approve(ctx, "admin-1", app.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	p, err := profiles.FindByID(ctx, "newcomer")
	if err != nil || p.Role != models.RoleTutor || p.FullName != "Tran Thi B" {
		t.Fatalf("profile = %+v (%v)", p, err)
	}
	tp, err := profiles.FindTutorProfile(ctx, "newcomer")
	if err != nil || tp.PricePerHour != 320000 {
		t.Fatalf("tutor profile = %+v (%v)", tp, err)
	}

	// Promotion is stamped with the service clock, like the review itself.
	reviewedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if !p.CreatedAt.Equal(reviewedAt) || !p.UpdatedAt.Equal(reviewedAt) {
		t.Errorf("profile stamps = %v %v, want %v", p.CreatedAt, p.UpdatedAt, reviewedAt)
	}
	if !tp.UpdatedAt.Equal(reviewedAt) {
		t.Errorf("tutor profile UpdatedAt = %v, want %v", tp.UpdatedAt, reviewedAt)
	}
}

func TestReject(t *testing.T) {
	svc, profiles := newService(t, nil)
	ctx := context.Background()

	app, err := svc.Submit(ctx, "student-1", Application{FullName: "Nguyen Van A"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, err := svc.Reject(ctx, "admin-1", app.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if *got.Status != models.ApplicationRejected {
		t.Errorf("status = %s", *got.Status)
	}
	p, _ := profiles.FindByID(ctx, "student-1")
	if p.Role != models.RoleStudent {
		t.Errorf("rejected applicant role = %s", p.Role)
	}
	if _, err := profiles.FindTutorProfile(ctx, "student-1"); err == nil {
		t.Errorf("rejected applicant has a tutor profile")
	}

	pending, err := svc.ListPending(ctx, "admin-1")
	if err != nil || len(pending) != 0 {
		t.Errorf("pending = %v (%v)", pending, err)
	}
}

func TestReviewRequiresAdmin(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	app, err := svc.Submit(ctx, "student-1", Application{FullName: "Nguyen Van A"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	tests := []struct {
		name  string
		actor string
		want  error
	}{
		{name: "anonymous", actor: "", want: apperr.ErrUnauthorized},
		{name: "student", actor: "student-1", want: apperr.ErrForbidden},
		{name: "unknown", actor: "ghost", want: apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ListPending(ctx, tt.actor); !errors.Is(err, tt.want) {
				t.Errorf("ListPending err = %v, want %v", err, tt.want)
			}
			if _, err := svc.Approve(ctx, tt.actor, app.ID); !errors.Is(err, tt.want) {
				t.Errorf("Approve err = %v, want %v", err, tt.want)
			}
			if _, err := svc.Reject(ctx, tt.actor, app.ID); !errors.Is(err, tt.want) {
				t.Errorf("Reject err = %v, want %v", err, tt.want)
			}
		})
	}

	pending, err := svc.ListPending(ctx, "admin-1")
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v (%v)", pending, err)
	}
	if _, err := svc.Approve(ctx, "admin-1", 4242); !errors.Is(err, apperr.ErrApplicationNotFound) {
		t.Errorf("missing application: err = %v", err)
	}
}
