// Package dashboard answers the read-only questions staff and borrower
// screens ask of the ledger.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
	"apparatus-lending/internal/domain/uow"
	"apparatus-lending/internal/usecase/eligibility"

	"gorm.io/gorm"
)

const (
	FilterAll = "all"
	// FilterOverdue selects approved or borrowed forms already past their
	// expected return day that staff have not flagged yet.
	FilterOverdue = "overdue"
)

type FormSummary struct {
	borrow.Form
	Lines   []borrow.TypeQuantity `json:"lines"`
	Summary string                `json:"summary"`
}

type FormDetail struct {
	Form  borrow.Form         `json:"form"`
	Items []borrow.ItemDetail `json:"items"`
	Trail []audit.Entry       `json:"audit_trail"`
}

// BorrowerStatus is a borrower's standing as their home screen shows it.
type BorrowerStatus struct {
	BorrowerID  uint64     `json:"borrower_id"`
	ActiveLoans int64      `json:"active_loans"`
	PastDue     bool       `json:"has_overdue_pending_return"`
	Banned      bool       `json:"banned"`
	BanUntil    *time.Time `json:"ban_until,omitempty"`
}

type Service struct {
	repos uow.Repos
	now   func() time.Time
}

func New(tx uow.UnitOfWork, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repos: tx.Repos(), now: now}
}

// PendingActions lists what needs a staff decision: waiting and checking
// forms, plus outstanding loans whose return day has passed. Newest first.
func (s *Service) PendingActions(ctx context.Context) ([]FormSummary, error) {
	queued, err := s.repos.Forms.List(ctx, borrow.FormFilter{
		Statuses: []borrow.Status{borrow.StatusWaiting, borrow.StatusChecking},
	})
	if err != nil {
		return nil, err
	}
	late, err := s.repos.Forms.List(ctx, s.pastDue())
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{}, len(queued)+len(late))
	var forms []borrow.Form
	for _, f := range append(queued, late...) {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		forms = append(forms, f)
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].ID > forms[j].ID })
	return s.summarize(ctx, forms)
}

// BorrowerForms lists one borrower's forms, newest first. activeOnly keeps
// forms that still hold or claim stock.
func (s *Service) BorrowerForms(ctx context.Context, borrowerID uint64, activeOnly bool) ([]FormSummary, error) {
	filter := borrow.FormFilter{BorrowerID: borrowerID, NewestFirst: true}
	if activeOnly {
		filter.Statuses = borrow.Active
	}
	forms, err := s.repos.Forms.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, forms)
}

// ListForms accepts "all", "overdue" or any form status.
func (s *Service) ListForms(ctx context.Context, filter string) ([]FormSummary, error) {
	f := borrow.FormFilter{NewestFirst: true}
	switch filter {
	case "", FilterAll:
	case FilterOverdue:
		f = s.pastDue()
	default:
		st := borrow.Status(filter)
		if !st.In(borrow.AllStatuses...) {
			return nil, fmt.Errorf("%w: unknown status filter %q", borrow.ErrInvalidInput, filter)
		}
		f.Statuses = []borrow.Status{st}
	}
	forms, err := s.repos.Forms.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, forms)
}

func (s *Service) FormDetail(ctx context.Context, formID uint64) (*FormDetail, error) {
	f, err := s.repos.Forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", borrow.ErrNotFound, formID)
		}
		return nil, err
	}
	items, err := s.repos.Items.ListDetailed(ctx, formID)
	if err != nil {
		return nil, err
	}
	trail, err := s.repos.Audit.ListByForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	return &FormDetail{Form: *f, Items: items, Trail: trail}, nil
}

// BorrowerStatus counts the borrower's open requests and reports any
// unflagged past-due loan and the ban window.
func (s *Service) BorrowerStatus(ctx context.Context, borrowerID uint64) (*BorrowerStatus, error) {
	b, err := s.repos.Borrowers.GetByID(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", borrower.ErrNotFound, borrowerID)
		}
		return nil, err
	}
	gate := eligibility.FromRepos(s.repos, s.now)
	active, err := gate.ActiveLoanCount(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	late, err := gate.HasOverdueLoansPendingReturn(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return &BorrowerStatus{
		BorrowerID:  borrowerID,
		ActiveLoans: active,
		PastDue:     late,
		Banned:      b.BannedAt(s.now()),
		BanUntil:    b.BanUntilDate,
	}, nil
}

func (s *Service) pastDue() borrow.FormFilter {
	today := eligibility.StartOfDay(s.now())
	return borrow.FormFilter{Statuses: borrow.Outstanding, DueBefore: &today, NewestFirst: true}
}

func (s *Service) summarize(ctx context.Context, forms []borrow.Form) ([]FormSummary, error) {
	if len(forms) == 0 {
		return []FormSummary{}, nil
	}
	ids := make([]uint64, len(forms))
	for i, f := range forms {
		ids[i] = f.ID
	}
	lines, err := s.repos.Items.SummarizeByForms(ctx, ids)
	if err != nil {
		return nil, err
	}
	byForm := make(map[uint64][]borrow.TypeQuantity, len(forms))
	for _, l := range lines {
		byForm[l.FormID] = append(byForm[l.FormID], l)
	}

	out := make([]FormSummary, len(forms))
	for i, f := range forms {
		parts := make([]string, 0, len(byForm[f.ID]))
		for _, l := range byForm[f.ID] {
			parts = append(parts, fmt.Sprintf("%s (x%d)", l.Name, l.Quantity))
		}
		out[i] = FormSummary{Form: f, Lines: byForm[f.ID], Summary: strings.Join(parts, ", ")}
	}
	return out, nil
}
