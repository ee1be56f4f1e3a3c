package repository

import (
	"context"
	"testing"
	"time"

	"tutorlink/internal/models"
	"tutorlink/internal/testutil"
)

func TestBookingUpdateStatusUnlessPaid(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testutil.NewDB(t))

	b := &models.Booking{StudentID: "s1", TutorID: "t1", Price: 100000, PlatformFee: 20000, PaymentStatus: models.PaymentUnpaid}
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.UpdateStatusUnlessPaid(ctx, b.ID, models.PaymentPaid)
	if err != nil || rows != 1 {
		t.Fatalf("mark paid: rows=%d err=%v", rows, err)
	}

	rows, err = repo.UpdateStatusUnlessPaid(ctx, b.ID, models.PaymentFailed)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if rows != 0 {
		t.Errorf("paid booking was updated, rows=%d", rows)
	}

	got, err := repo.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.PaymentStatus != models.PaymentPaid {
		t.Errorf("status = %q, want paid", got.PaymentStatus)
	}
}

func TestBookingFindStale(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewBookingRepository(db)

	old := time.Now().Add(-48 * time.Hour)
	for _, st := range []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPendingReview, models.PaymentPaid} {
		b := &models.Booking{StudentID: "s", TutorID: "t", Price: 1, PaymentStatus: st}
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := db.Model(b).UpdateColumn("updated_at", old).Error; err != nil {
			t.Fatalf("age booking: %v", err)
		}
	}

	stale, err := repo.FindStale(ctx, []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPendingReview}, time.Now().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("FindStale: %v", err)
	}
	if len(stale) != 2 {
		t.Errorf("len(stale) = %d, want 2", len(stale))
	}
}

func TestApplicationMarkReviewedOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testutil.NewDB(t))

	legacy := &models.TutorApplication{UserID: "u1"} // NULL status
	if err := repo.Create(ctx, legacy); err != nil {
		t.Fatalf("Create: %v", err)
	}
	pending := models.ApplicationPending
	newer := &models.TutorApplication{UserID: "u2", Status: &pending, CreatedAt: time.Now().Add(time.Minute)}
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("ListPending = %+v, want newest first", list)
	}

	rows, err := repo.MarkReviewed(ctx, legacy.ID, models.ApplicationApproved, "admin", time.Now())
	if err != nil || rows != 1 {
		t.Fatalf("first review: rows=%d err=%v", rows, err)
	}
	rows, err = repo.MarkReviewed(ctx, legacy.ID, models.ApplicationRejected, "admin", time.Now())
	if err != nil || rows != 0 {
		t.Fatalf("second review: rows=%d err=%v", rows, err)
	}
}

func TestProfileUpsertRoleKeepsFields(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(testutil.NewDB(t))

	if err := repo.Create(ctx, &models.Profile{ID: "u1", FullName: "An", Role: models.RoleStudent}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpsertRole(ctx, &models.Profile{ID: "u1", Role: models.RoleTutor}); err != nil {
		t.Fatalf("UpsertRole: %v", err)
	}
	if err := repo.UpsertRole(ctx, &models.Profile{ID: "u2", Role: models.RoleTutor}); err != nil {
		t.Fatalf("UpsertRole new: %v", err)
	}

	p, err := repo.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p.Role != models.RoleTutor || p.FullName != "An" {
		t.Errorf("profile = %+v, want tutor role with name kept", p)
	}
	if _, err := repo.FindByID(ctx, "u2"); err != nil {
		t.Errorf("upsert should create missing profile: %v", err)
	}
}

func TestRequestMarkMatchedOnlyWhenOpen(t *testing.T) {
	ctx := context.Background()
	repo := NewRequestRepository(testutil.NewDB(t))

	req := &models.TutoringRequest{StudentID: "s1", Price: 200000, Status: models.RequestOpen}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rows, err := repo.MarkMatched(ctx, req.ID, "t1"); err != nil || rows != 1 {
		t.Fatalf("first match: rows=%d err=%v", rows, err)
	}
	if rows, err := repo.MarkMatched(ctx, req.ID, "t2"); err != nil || rows != 0 {
		t.Fatalf("second match: rows=%d err=%v", rows, err)
	}
}

func TestPaymentFindAllAndSumPaidSince(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(testutil.NewDB(t))

	id := uint(3)
	ref := "TX-9"
	events := []*models.PaymentEvent{
		{BookingID: &id, Gateway: models.GatewayWallet, OrderID: "bk-3-1", Amount: 300000, Currency: "VND", Status: models.EventFailed},
		{BookingID: &id, Gateway: models.GatewayBank, OrderID: "bk-3-2", TransactionRef: &ref, Amount: 300000, Currency: "VND", Status: models.EventPaid},
		{Gateway: models.GatewayCard, OrderID: "cs_unknown", Amount: 150000, Currency: "VND", Status: models.EventPaid},
	}
	for _, e := range events {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, total, err := repo.FindAll(ctx, 2, 1, "")
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Errorf("total=%d len=%d, want 3 and 2", total, len(page))
	}

	found, total, err := repo.FindAll(ctx, 50, 1, "TX-9")
	if err != nil {
		t.Fatalf("FindAll(q): %v", err)
	}
	if total != 1 || len(found) != 1 || found[0].OrderID != "bk-3-2" {
		t.Errorf("search = %+v (total %d)", found, total)
	}

	count, sum, err := repo.SumPaidSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("SumPaidSince: %v", err)
	}
	if count != 2 || sum != 450000 {
		t.Errorf("count=%d sum=%d, want 2 and 450000", count, sum)
	}

	paid, err := repo.CountPaid(ctx, id)
	if err != nil || paid != 1 {
		t.Errorf("CountPaid = %d, %v", paid, err)
	}
}
