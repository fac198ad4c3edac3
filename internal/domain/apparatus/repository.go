package apparatus

import "context"

type TypeRepository interface {
	Create(ctx context.Context, t *Type) error
	GetByID(ctx context.Context, id uint64) (*Type, error)
	List(ctx context.Context) ([]Type, error)
	ExistsDuplicate(ctx context.Context, name, category, size, material string) (bool, error)

	// LockByIDs takes an exclusive lock on every listed type, one row at a
	// time in ascending id order, and returns them in that order.
	LockByIDs(ctx context.Context, ids []uint64) ([]Type, error)

	SaveAvailability(ctx context.Context, id uint64, available int64, status TypeStatus) error
	// AdjustDamaged adds delta to damaged_stock, never going below zero.
	AdjustDamaged(ctx context.Context, id uint64, delta int64) error
	UpdateStock(ctx context.Context, id uint64, total, damaged, lost int64) error
	Delete(ctx context.Context, id uint64) error
}

// UnitRepository is the unit ledger. Callers run it inside an open
// transaction with the owning type rows already locked.
type UnitRepository interface {
	CountAvailable(ctx context.Context, typeID uint64) (int64, error)
	CountCurrentlyOut(ctx context.Context, typeID uint64) (int64, error)

	// SelectForAllocation locks and returns up to count available units,
	// lowest id first. A short result is the caller's problem.
	SelectForAllocation(ctx context.Context, typeID uint64, count int) ([]Unit, error)

	// SelectForRetirement locks and returns up to n units of the type in the
	// given condition and status that no open form holds, highest id first.
	SelectForRetirement(ctx context.Context, typeID uint64, cond UnitCondition, status UnitStatus, n int) ([]Unit, error)

	SetStatus(ctx context.Context, ids []uint64, status UnitStatus) error
	SetCondition(ctx context.Context, ids []uint64, cond UnitCondition) error
	// RestoreLost flips lost units among ids back to good.
	RestoreLost(ctx context.Context, ids []uint64) error

	GetForUpdate(ctx context.Context, id uint64) (*Unit, error)
	GetByID(ctx context.Context, id uint64) (*Unit, error)
	ListByType(ctx context.Context, typeID uint64) ([]Unit, error)

	CreateBatch(ctx context.Context, units []Unit) error
	// DeleteAvailable removes up to n available units of the type that no
	// loan item has ever referenced, highest id first, and reports how many
	// were removed.
	DeleteAvailable(ctx context.Context, typeID uint64, n int) (int, error)
	DeleteByType(ctx context.Context, typeID uint64) error
}
