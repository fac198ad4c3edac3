// Package eligibility decides whether a borrower may open a new request.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
	"apparatus-lending/internal/domain/uow"

	"gorm.io/gorm"
)

type Gate struct {
	forms     borrow.FormRepository
	borrowers borrower.Repository
	now       func() time.Time
}

func New(forms borrow.FormRepository, borrowers borrower.Repository, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{forms: forms, borrowers: borrowers, now: now}
}

func FromRepos(r uow.Repos, now func() time.Time) *Gate { return New(r.Forms, r.Borrowers, now) }

// IsBanned reports whether the borrower's ban expiry lies in the future.
func (g *Gate) IsBanned(ctx context.Context, borrowerID uint64) (bool, error) {
	b, err := g.borrowers.GetByID(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: %d", borrower.ErrNotFound, borrowerID)
		}
		return false, err
	}
	return b.BannedAt(g.now()), nil
}

// HasDuplicateActiveRequest returns the name of a requested type the borrower
// already has on a waiting, approved, borrowed or checking form, or "".
func (g *Gate) HasDuplicateActiveRequest(ctx context.Context, borrowerID uint64, typeIDs []uint64) (string, error) {
	return g.forms.FindConflictingTypeName(ctx, borrowerID, typeIDs, borrow.NonTerminal)
}

func (g *Gate) ActiveLoanCount(ctx context.Context, borrowerID uint64) (int64, error) {
	return g.forms.CountByBorrower(ctx, borrowerID, borrow.NonTerminal)
}

// HasOverdueLoansPendingReturn reports approved or borrowed forms whose
// expected return day is already behind us but which staff have not flagged.
func (g *Gate) HasOverdueLoansPendingReturn(ctx context.Context, borrowerID uint64) (bool, error) {
	return g.forms.ExistsPastDue(ctx, borrowerID, borrow.Outstanding, StartOfDay(g.now()))
}

// Admit runs the ban and duplicate checks a submission must pass.
func (g *Gate) Admit(ctx context.Context, borrowerID uint64, typeIDs []uint64) error {
	banned, err := g.IsBanned(ctx, borrowerID)
	if err != nil {
		return err
	}
	if banned {
		return borrow.ErrBanned
	}
	name, err := g.HasDuplicateActiveRequest(ctx, borrowerID, typeIDs)
	if err != nil {
		return err
	}
	if name != "" {
		return &borrow.DuplicateRequestError{ItemName: name}
	}
	return nil
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDay keeps the calendar date t carries in its own zone and stores it
// as midnight UTC. Client-supplied dates go through here, not StartOfDay.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
