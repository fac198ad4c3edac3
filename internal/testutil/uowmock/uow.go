package uowmock

import (
	"context"
	"errors"

	"apparatus-lending/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; WithinTx without a func
// returns errUnimplemented, Repos returns the zero value.
type UoW struct {
	WithinTxFn func(ctx context.Context, fn func(r uow.Repos) error) error
	ReposFn    func() uow.Repos
}

func New() *UoW { return &UoW{} }

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}

// Delegating makes every WithinTx call go through next, after hook has had a
// chance to fail it. Useful for injecting storage errors around a real UoW.
func Delegating(next uow.UnitOfWork, hook func(call int) error) *UoW {
	calls := 0
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			calls++
			if hook != nil {
				if err := hook(calls); err != nil {
					return err
				}
			}
			return next.WithinTx(ctx, fn)
		},
		ReposFn: next.Repos,
	}
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) Repos() uow.Repos {
	if m.ReposFn != nil {
		return m.ReposFn()
	}
	return uow.Repos{}
}
