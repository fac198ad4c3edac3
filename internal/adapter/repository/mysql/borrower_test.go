package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/testutil/dbtest"
)

func TestBorrowerRepository_SetAndClearBan(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	dbtest.SeedBorrower(t, db, 7)
	repo := NewBorrowerRepository(db)

	until := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if err := repo.SetBanUntil(ctx, 7, &until); err != nil {
		t.Fatalf("SetBanUntil: %v", err)
	}
	b, err := repo.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b.BanUntilDate == nil || !b.BanUntilDate.Equal(until) {
		t.Fatalf("ban = %v, want %v", b.BanUntilDate, until)
	}
	if !b.BannedAt(until.Add(-time.Hour)) || b.BannedAt(until) {
		t.Fatalf("BannedAt boundaries wrong")
	}

	if err := repo.SetBanUntil(ctx, 7, nil); err != nil {
		t.Fatalf("clear ban: %v", err)
	}
	b, _ = repo.GetByID(ctx, 7)
	if b.BanUntilDate != nil {
		t.Fatalf("ban not cleared: %v", b.BanUntilDate)
	}
}

func TestAuditRepository_RejectsMissingActor(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewAuditRepository(db)
	err := repo.Append(context.Background(), &audit.Entry{Action: audit.ActionApproved})
	if !errors.Is(err, audit.ErrMissingActor) {
		t.Fatalf("want ErrMissingActor, got %v", err)
	}
}
