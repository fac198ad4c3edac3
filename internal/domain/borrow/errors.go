package borrow

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("borrow form not found")
	ErrInvalidInput      = errors.New("invalid borrow request")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyApproved   = fmt.Errorf("%w: form already approved", ErrInvalidTransition)
	ErrNotYetDue         = fmt.Errorf("%w: form is not past its expected return date", ErrInvalidTransition)
	ErrNotOwner          = fmt.Errorf("%w: form belongs to another borrower", ErrInvalidTransition)
	ErrUnitNotOnForm     = errors.New("unit is not bound to this form")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockMismatch     = fmt.Errorf("%w: stock changed since submission", ErrInsufficientStock)

	ErrDuplicateRequest = errors.New("duplicate active request")
	ErrBanned           = errors.New("borrower is banned")
)

// StockError names the type that blocked a submission or approval.
type StockError struct {
	TypeID    uint64
	TypeName  string
	Requested int64
	Available int64
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s for %q (requested %d, available %d)", e.Err, e.TypeName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return e.Err }

// DuplicateRequestError carries the name of the item the borrower already
// has an open request for.
type DuplicateRequestError struct {
	ItemName string
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("%s for %q", ErrDuplicateRequest, e.ItemName)
}

func (e *DuplicateRequestError) Unwrap() error { return ErrDuplicateRequest }
