// Package loan is the loan ledger: the form state machine and the unit and
// stock bookkeeping each transition performs.
package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
	"apparatus-lending/internal/domain/uow"
	"apparatus-lending/internal/usecase/eligibility"
	"apparatus-lending/internal/usecase/stock"
	"apparatus-lending/pkg/retry"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Policy holds the overdue penalty settings.
type Policy struct {
	BanDuration      time.Duration
	BanThresholdDays int
}

func DefaultPolicy() Policy {
	return Policy{BanDuration: 24 * time.Hour, BanThresholdDays: 2}
}

type Ledger struct {
	uow      uow.UnitOfWork
	policy   Policy
	now      func() time.Time
	log      logrus.FieldLogger
	attempts int
}

type Option func(*Ledger)

func WithPolicy(p Policy) Option { return func(l *Ledger) { l.policy = p } }

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithRetryAttempts bounds how often a transaction aborted by a deadlock or
// lock timeout is run again.
func WithRetryAttempts(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.attempts = n
		}
	}
}

func NewLedger(tx uow.UnitOfWork, opts ...Option) *Ledger {
	l := &Ledger{
		uow:      tx,
		policy:   DefaultPolicy(),
		now:      time.Now,
		log:      logrus.StandardLogger(),
		attempts: 3,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// scope is what a form transition sees inside its transaction: the locked
// types in ascending id order, then the locked form.
type scope struct {
	repos uow.Repos
	types []apparatus.Type
	form  *borrow.Form
	agg   *stock.Aggregator
	today time.Time
}

func (s *scope) typeIDs() []uint64 {
	ids := make([]uint64, len(s.types))
	for i, t := range s.types {
		ids[i] = t.ID
	}
	return ids
}

func (s *scope) typeName(id uint64) string {
	for _, t := range s.types {
		if t.ID == id {
			return t.Name
		}
	}
	return fmt.Sprintf("type %d", id)
}

func (s *scope) stamp(actorID uint64, remarks string) {
	s.form.StaffID = &actorID
	s.form.StaffRemarks = nil
	if remarks != "" {
		s.form.StaffRemarks = &remarks
	}
}

func (s *scope) audit(ctx context.Context, actorID uint64, action audit.Action, remarks string) error {
	e, err := audit.NewEntry(&s.form.ID, actorID, action, remarks)
	if err != nil {
		return err
	}
	return s.repos.Audit.Append(ctx, e)
}

// inTx runs fn in one transaction, again from scratch while the storage layer
// reports a retryable conflict.
func (l *Ledger) inTx(ctx context.Context, op string, fn func(r uow.Repos) error) error {
	return retry.Do(ctx,
		func(ctx context.Context) error { return l.uow.WithinTx(ctx, fn) },
		retry.WithMaxAttempts(l.attempts),
		retry.WithRetryable(retry.IsTarget(uow.ErrRetryable)),
		retry.OnRetry(func(attempt int, err error) {
			l.log.WithFields(logrus.Fields{"module": "loan", "op": op, "attempt": attempt}).
				WithError(err).Warn("retrying transaction after storage conflict")
		}),
	)
}

// transition locks the form's types, then the form, and hands both to fn.
func (l *Ledger) transition(ctx context.Context, op string, formID, actorID uint64, fn func(ctx context.Context, s *scope) error) (*borrow.Form, error) {
	if actorID == 0 {
		return nil, audit.ErrMissingActor
	}
	var out *borrow.Form
	err := l.inTx(ctx, op, func(r uow.Repos) error {
		ids, err := r.Items.DistinctTypeIDs(ctx, formID)
		if err != nil {
			return err
		}
		types, err := r.Types.LockByIDs(ctx, ids)
		if err != nil {
			return err
		}
		f, err := r.Forms.GetForUpdate(ctx, formID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", borrow.ErrNotFound, formID)
			}
			return err
		}
		s := &scope{repos: r, types: types, form: f, agg: stock.FromRepos(r), today: eligibility.StartOfDay(l.now())}
		if err := fn(ctx, s); err != nil {
			return err
		}
		out = f
		return nil
	})
	l.logResult(op, logrus.Fields{"form_id": formID, "actor_id": actorID}, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) logResult(op string, fields logrus.Fields, err error) {
	entry := l.log.WithFields(fields).WithFields(logrus.Fields{"module": "loan", "op": op})
	switch {
	case err == nil:
		entry.Info("ledger operation committed")
	case isBusinessError(err):
		entry.WithError(err).Info("ledger operation refused")
	default:
		entry.WithError(err).Error("ledger operation failed")
	}
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		borrow.ErrNotFound, borrow.ErrInvalidInput, borrow.ErrInvalidTransition,
		borrow.ErrInsufficientStock, borrow.ErrDuplicateRequest, borrow.ErrBanned,
		borrow.ErrUnitNotOnForm, apparatus.ErrTypeNotFound, apparatus.ErrUnitNotFound,
		apparatus.ErrNotDamaged, audit.ErrMissingActor, borrower.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func invalidFrom(op string, s borrow.Status) error {
	return fmt.Errorf("%w: cannot %s a form in status %s", borrow.ErrInvalidTransition, op, s)
}

func withRemarks(msg, remarks string) string {
	if remarks == "" {
		return msg
	}
	return msg + " Remarks: " + remarks
}
