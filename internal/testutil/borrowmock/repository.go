package borrowmock

import (
	"context"
	"errors"
	"time"

	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
)

var ErrUnimplemented = errors.New("borrowmock: method not implemented")

var (
	_ borrow.FormRepository = (*FormRepo)(nil)
	_ borrower.Repository   = (*BorrowerRepo)(nil)
)

// FormRepo is a function-backed borrow.FormRepository. Writes default to a
// nil error, reads to ErrUnimplemented.
type FormRepo struct {
	CreateFn                  func(ctx context.Context, f *borrow.Form) error
	SaveFn                    func(ctx context.Context, f *borrow.Form) error
	GetByIDFn                 func(ctx context.Context, id uint64) (*borrow.Form, error)
	GetForUpdateFn            func(ctx context.Context, id uint64) (*borrow.Form, error)
	ListFn                    func(ctx context.Context, f borrow.FormFilter) ([]borrow.Form, error)
	CountByBorrowerFn         func(ctx context.Context, borrowerID uint64, statuses []borrow.Status) (int64, error)
	ExistsPastDueFn           func(ctx context.Context, borrowerID uint64, statuses []borrow.Status, before time.Time) (bool, error)
	FindConflictingTypeNameFn func(ctx context.Context, borrowerID uint64, typeIDs []uint64, statuses []borrow.Status) (string, error)
}

func (m *FormRepo) Create(ctx context.Context, f *borrow.Form) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, f)
	}
	return nil
}

func (m *FormRepo) Save(ctx context.Context, f *borrow.Form) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, f)
	}
	return nil
}

func (m *FormRepo) GetByID(ctx context.Context, id uint64) (*borrow.Form, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrUnimplemented
}

func (m *FormRepo) GetForUpdate(ctx context.Context, id uint64) (*borrow.Form, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, id)
	}
	return nil, ErrUnimplemented
}

func (m *FormRepo) List(ctx context.Context, f borrow.FormFilter) ([]borrow.Form, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, ErrUnimplemented
}

func (m *FormRepo) CountByBorrower(ctx context.Context, borrowerID uint64, statuses []borrow.Status) (int64, error) {
	if m.CountByBorrowerFn != nil {
		return m.CountByBorrowerFn(ctx, borrowerID, statuses)
	}
	return 0, ErrUnimplemented
}

func (m *FormRepo) ExistsPastDue(ctx context.Context, borrowerID uint64, statuses []borrow.Status, before time.Time) (bool, error) {
	if m.ExistsPastDueFn != nil {
		return m.ExistsPastDueFn(ctx, borrowerID, statuses, before)
	}
	return false, ErrUnimplemented
}

func (m *FormRepo) FindConflictingTypeName(ctx context.Context, borrowerID uint64, typeIDs []uint64, statuses []borrow.Status) (string, error) {
	if m.FindConflictingTypeNameFn != nil {
		return m.FindConflictingTypeNameFn(ctx, borrowerID, typeIDs, statuses)
	}
	return "", ErrUnimplemented
}

// BorrowerRepo is a function-backed borrower.Repository.
type BorrowerRepo struct {
	GetByIDFn     func(ctx context.Context, id uint64) (*borrower.Borrower, error)
	SetBanUntilFn func(ctx context.Context, id uint64, until *time.Time) error
}

func (m *BorrowerRepo) GetByID(ctx context.Context, id uint64) (*borrower.Borrower, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrUnimplemented
}

func (m *BorrowerRepo) SetBanUntil(ctx context.Context, id uint64, until *time.Time) error {
	if m.SetBanUntilFn != nil {
		return m.SetBanUntilFn(ctx, id, until)
	}
	return nil
}
