package loan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/uow"
	"apparatus-lending/internal/usecase/eligibility"
	"apparatus-lending/internal/usecase/stock"
	"apparatus-lending/pkg/id"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Submit opens a waiting_for_approval form with one unassigned item per
// requested unit. Either every line fits the free capacity of its type or
// nothing is written.
func (l *Ledger) Submit(ctx context.Context, in SubmitInput) (*FormDTO, error) {
	qty, err := normalizeLines(in)
	if err != nil {
		return nil, err
	}
	typeIDs := make([]uint64, 0, len(qty))
	for tid := range qty {
		typeIDs = append(typeIDs, tid)
	}
	sort.Slice(typeIDs, func(i, j int) bool { return typeIDs[i] < typeIDs[j] })

	var out *borrow.Form
	err = l.inTx(ctx, "submit", func(r uow.Repos) error {
		// type locks first so two submissions for the same type serialize
		// before the duplicate check
		types, err := r.Types.LockByIDs(ctx, typeIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apparatus.ErrTypeNotFound
			}
			return err
		}
		if err := eligibility.FromRepos(r, l.now).Admit(ctx, in.BorrowerID, typeIDs); err != nil {
			return err
		}

		agg := stock.FromRepos(r)
		for _, t := range types {
			capacity, err := agg.AvailableForNew(ctx, t)
			if err != nil {
				return err
			}
			if capacity < qty[t.ID] {
				return &borrow.StockError{
					TypeID:    t.ID,
					TypeName:  t.Name,
					Requested: qty[t.ID],
					Available: max(capacity, 0),
					Err:       borrow.ErrInsufficientStock,
				}
			}
		}

		today := eligibility.StartOfDay(l.now())
		f := &borrow.Form{
			Reference:          id.NewID32(),
			BorrowerID:         in.BorrowerID,
			FormType:           in.FormType,
			Status:             borrow.StatusWaiting,
			RequestDate:        today,
			BorrowDate:         eligibility.CalendarDay(in.BorrowDate),
			ExpectedReturnDate: eligibility.CalendarDay(in.ExpectedReturnDate),
		}
		if err := r.Forms.Create(ctx, f); err != nil {
			return err
		}

		var items []borrow.Item
		summary := make([]string, 0, len(types))
		for _, t := range types {
			for i := int64(0); i < qty[t.ID]; i++ {
				items = append(items, borrow.Item{FormID: f.ID, TypeID: t.ID, ItemStatus: borrow.ItemPending})
			}
			summary = append(summary, fmt.Sprintf("%s (x%d)", t.Name, qty[t.ID]))
		}
		if err := r.Items.CreateBatch(ctx, items); err != nil {
			return err
		}
		if err := agg.RefreshAll(ctx, typeIDs); err != nil {
			return err
		}

		e, err := audit.NewEntry(&f.ID, in.BorrowerID, audit.ActionSubmitted,
			fmt.Sprintf("Requested %s: %s", f.FormType, strings.Join(summary, ", ")))
		if err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, e); err != nil {
			return err
		}
		out = f
		return nil
	})
	l.logResult("submit", logrus.Fields{"borrower_id": in.BorrowerID, "types": typeIDs}, err)
	if err != nil {
		return nil, err
	}
	return toDTO(out), nil
}

// normalizeLines validates the request and folds repeated lines for the same
// type into one quantity.
func normalizeLines(in SubmitInput) (map[uint64]int64, error) {
	if in.BorrowerID == 0 {
		return nil, fmt.Errorf("%w: borrower is required", borrow.ErrInvalidInput)
	}
	if in.FormType != borrow.TypeBorrow && in.FormType != borrow.TypeReservation {
		return nil, fmt.Errorf("%w: form type must be borrow or reservation", borrow.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", borrow.ErrInvalidInput)
	}
	if in.BorrowDate.IsZero() || in.ExpectedReturnDate.IsZero() {
		return nil, fmt.Errorf("%w: borrow and expected return dates are required", borrow.ErrInvalidInput)
	}
	if eligibility.CalendarDay(in.ExpectedReturnDate).Before(eligibility.CalendarDay(in.BorrowDate)) {
		return nil, fmt.Errorf("%w: expected return date is before borrow date", borrow.ErrInvalidInput)
	}

	qty := make(map[uint64]int64, len(in.Lines))
	for _, line := range in.Lines {
		if line.TypeID == 0 || line.Quantity < 1 {
			return nil, fmt.Errorf("%w: each item needs a type and a quantity of at least 1", borrow.ErrInvalidInput)
		}
		qty[line.TypeID] += int64(line.Quantity)
	}
	return qty, nil
}
