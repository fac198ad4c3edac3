package borrow

import (
	"context"
	"time"
)

type FormRepository interface {
	Create(ctx context.Context, f *Form) error
	Save(ctx context.Context, f *Form) error
	GetByID(ctx context.Context, id uint64) (*Form, error)
	GetForUpdate(ctx context.Context, id uint64) (*Form, error)

	List(ctx context.Context, f FormFilter) ([]Form, error)
	CountByBorrower(ctx context.Context, borrowerID uint64, statuses []Status) (int64, error)
	ExistsPastDue(ctx context.Context, borrowerID uint64, statuses []Status, before time.Time) (bool, error)

	// FindConflictingTypeName returns the name of the first requested type the
	// borrower already holds in a form with one of statuses, or "" if none.
	FindConflictingTypeName(ctx context.Context, borrowerID uint64, typeIDs []uint64, statuses []Status) (string, error)
}

type ItemRepository interface {
	CreateBatch(ctx context.Context, items []Item) error
	ListByForm(ctx context.Context, formID uint64) ([]Item, error)
	// ListPendingForUpdate locks the unassigned items of a form, id order.
	ListPendingForUpdate(ctx context.Context, formID uint64) ([]Item, error)
	DistinctTypeIDs(ctx context.Context, formID uint64) ([]uint64, error)
	BoundUnitIDs(ctx context.Context, formID uint64) ([]uint64, error)

	AssignUnit(ctx context.Context, itemID, unitID uint64, status ItemStatus) error
	SetStatusByForm(ctx context.Context, formID uint64, status ItemStatus) error
	SetStatusByUnit(ctx context.Context, formID, unitID uint64, status ItemStatus) error

	// CountPendingByType counts item rows of the type whose form is still
	// waiting for approval.
	CountPendingByType(ctx context.Context, typeID uint64) (int64, error)
	CountByType(ctx context.Context, typeID uint64) (int64, error)

	ListDetailed(ctx context.Context, formID uint64) ([]ItemDetail, error)
	SummarizeByForms(ctx context.Context, formIDs []uint64) ([]TypeQuantity, error)
}
