package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tutorlink/internal/models"
	"tutorlink/internal/pkg/utils"
	"tutorlink/internal/repository"
)

const staleReportLimit = 50

// Reporter posts a text report to the admin channel.
type Reporter interface {
	Report(ctx context.Context, text string) error
}

// Scheduler manages all cron jobs. Jobs only report; they never change
// booking or payment state.
type Scheduler struct {
	cron       *cron.Cron
	bookings   *repository.BookingRepository
	payments   *repository.PaymentRepository
	reporter   Reporter
	logger     *zap.Logger
	sweepSpec  string
	staleAfter time.Duration
	now        func() time.Time
}

// CronRepos bundles repositories needed by cron jobs.
type CronRepos struct {
	Booking *repository.BookingRepository
	Payment *repository.PaymentRepository
}

// New creates a new cron scheduler.
func New(repos *CronRepos, reporter Reporter, sweepSpec string, staleAfter time.Duration, logger *zap.Logger) *Scheduler {
	if sweepSpec == "" {
		sweepSpec = "0 */30 * * * *"
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		bookings:   repos.Booking,
		payments:   repos.Payment,
		reporter:   reporter,
		logger:     logger,
		sweepSpec:  sweepSpec,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	// Stale review sweep
	if _, err := s.cron.AddFunc(s.sweepSpec, func() {
		s.logger.Debug("Running: stale review sweep")
		s.staleReviewSweep(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule stale sweep %q: %w", s.sweepSpec, err)
	}

	// Daily payment report - at 23:45
	if _, err := s.cron.AddFunc("0 45 23 * * *", func() {
		s.logger.Debug("Running: daily payment report")
		s.dailyPaymentReport(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// ── Stale review sweep ───────────────────────────────────────────────

// staleReviewSweep lists bookings that have waited in pending_review longer
// than staleAfter, so an admin can chase the manual payment.
func (s *Scheduler) staleReviewSweep(ctx context.Context) []models.Booking {
	defer s.recoverFromPanic("staleReviewSweep")

	now := s.now()
	stale, err := s.bookings.FindStale(ctx, []models.PaymentStatus{models.PaymentPendingReview}, now.Add(-s.staleAfter), staleReportLimit)
	if err != nil {
		s.logger.Error("Stale sweep query failed", zap.Error(err))
		return nil
	}
	if len(stale) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%d booking(s) awaiting payment review</b>\n", len(stale))
	for _, b := range stale {
		fmt.Fprintf(&sb, "#%d · %s · waiting %s\n", b.ID, utils.FormatVND(b.Price), utils.Age(now.Sub(b.UpdatedAt)))
	}
	s.report(ctx, "stale_review", sb.String())

	s.logger.Info("Stale sweep completed", zap.Int("stale", len(stale)))
	return stale
}

// ── Daily payment report ─────────────────────────────────────────────

func (s *Scheduler) dailyPaymentReport(ctx context.Context) string {
	defer s.recoverFromPanic("dailyPaymentReport")

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, total, err := s.payments.SumPaidSince(ctx, startOfDay)
	if err != nil {
		s.logger.Error("Daily report query failed", zap.Error(err))
		return ""
	}

	text := fmt.Sprintf("<b>Daily payments %s</b>\nPaid bookings: %d\nCollected: %s",
		startOfDay.Format("2006-01-02"), count, utils.FormatVND(total))
	s.report(ctx, "daily_report", text)
	return text
}

func (s *Scheduler) report(ctx context.Context, job, text string) {
	if s.reporter == nil {
		return
	}
	if err := s.reporter.Report(ctx, text); err != nil {
		s.logger.Warn("Cron report failed", zap.String("job", job), zap.Error(err))
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
