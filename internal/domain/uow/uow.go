package uow

import (
	"context"
	"errors"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
)

// ErrRetryable marks a storage failure (deadlock, lock timeout, serialization
// conflict) after which the whole transaction was rolled back and may be
// retried from scratch.
var ErrRetryable = errors.New("transaction aborted by storage conflict, safe to retry")

type Repos struct {
	Types     apparatus.TypeRepository
	Units     apparatus.UnitRepository
	Forms     borrow.FormRepository
	Items     borrow.ItemRepository
	Audit     audit.Repository
	Borrowers borrower.Repository
}

type UnitOfWork interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// Repos returns repositories bound to no transaction, for reads.
	Repos() Repos
}
