// Package catalog provisions apparatus types and their units and keeps stock
// counts editable without breaking loans already in flight.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/uow"
	"apparatus-lending/internal/usecase/stock"
	"apparatus-lending/pkg/retry"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Service struct {
	uow uow.UnitOfWork
	log logrus.FieldLogger
}

func New(tx uow.UnitOfWork, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{uow: tx, log: log.WithField("module", "catalog")}
}

func (s *Service) inTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return retry.Do(ctx,
		func(ctx context.Context) error { return s.uow.WithinTx(ctx, fn) },
		retry.WithRetryable(retry.IsTarget(uow.ErrRetryable)),
	)
}

// lockType locks a single type row and maps a missing row to ErrTypeNotFound.
func lockType(ctx context.Context, r uow.Repos, id uint64) (apparatus.Type, error) {
	types, err := r.Types.LockByIDs(ctx, []uint64{id})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apparatus.Type{}, fmt.Errorf("%w: %d", apparatus.ErrTypeNotFound, id)
		}
		return apparatus.Type{}, err
	}
	return types[0], nil
}

func appendAudit(ctx context.Context, r uow.Repos, actorID uint64, action audit.Action, msg string) error {
	e, err := audit.NewEntry(nil, actorID, action, msg)
	if err != nil {
		return err
	}
	return r.Audit.Append(ctx, e)
}

// CreateType registers a type and one unit per physical item: good units are
// available, damaged and lost ones start out of circulation.
func (s *Service) CreateType(ctx context.Context, in CreateTypeInput) (*apparatus.Type, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apparatus.ErrInvalidStock)
	}
	if in.ActorID == 0 {
		return nil, audit.ErrMissingActor
	}
	if err := checkCounts(in.Total, in.Damaged, in.Lost); err != nil {
		return nil, err
	}

	var out *apparatus.Type
	err := s.inTx(ctx, func(r uow.Repos) error {
		dup, err := r.Types.ExistsDuplicate(ctx, in.Name, in.Category, in.Size, in.Material)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: %s", apparatus.ErrDuplicateType, in.Name)
		}

		t := &apparatus.Type{
			Name:         in.Name,
			Category:     in.Category,
			Size:         in.Size,
			Material:     in.Material,
			Description:  in.Description,
			Image:        in.Image,
			TotalStock:   in.Total,
			DamagedStock: in.Damaged,
			LostStock:    in.Lost,
			Status:       apparatus.TypeUnavailable,
		}
		if err := r.Types.Create(ctx, t); err != nil {
			return err
		}
		units := provision(t.ID, in.Total-in.Damaged-in.Lost, apparatus.ConditionGood)
		units = append(units, provision(t.ID, in.Damaged, apparatus.ConditionDamaged)...)
		units = append(units, provision(t.ID, in.Lost, apparatus.ConditionLost)...)
		if err := r.Units.CreateBatch(ctx, units); err != nil {
			return err
		}
		if _, err := stock.FromRepos(r).Refresh(ctx, t.ID); err != nil {
			return err
		}
		if err := appendAudit(ctx, r, in.ActorID, audit.ActionTypeCreated,
			fmt.Sprintf("Created apparatus type %s (Type ID %d) with %d units.", t.Name, t.ID, in.Total)); err != nil {
			return err
		}
		out, err = r.Types.GetByID(ctx, t.ID)
		return err
	})
	s.logResult("create_type", logrus.Fields{"name": in.Name, "actor_id": in.ActorID}, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStock rewrites the stock counters of a type and reconciles the unit
// rows with them. The new physical stock must still cover every unit out on
// loan plus every pending request. Lowering damaged or lost returns units of
// that condition to circulation; raising them retires idle good units,
// highest id first. Growing the total adds good units; shrinking removes
// available units no loan has ever referenced.
func (s *Service) UpdateStock(ctx context.Context, in UpdateStockInput) (stock.Snapshot, error) {
	if in.ActorID == 0 {
		return stock.Snapshot{}, audit.ErrMissingActor
	}
	if err := checkCounts(in.Total, in.Damaged, in.Lost); err != nil {
		return stock.Snapshot{}, err
	}

	var snap stock.Snapshot
	err := s.inTx(ctx, func(r uow.Repos) error {
		t, err := lockType(ctx, r, in.TypeID)
		if err != nil {
			return err
		}
		agg := stock.FromRepos(r)
		out, err := r.Units.CountCurrentlyOut(ctx, t.ID)
		if err != nil {
			return err
		}
		pending, err := agg.PendingQuantity(ctx, t.ID)
		if err != nil {
			return err
		}
		if committed := out + pending; in.Total-in.Damaged-in.Lost < committed {
			return fmt.Errorf("%w: %d units are out or requested", apparatus.ErrStockTooLow, committed)
		}

		if err := shift(ctx, r, t.ID, apparatus.ConditionDamaged, apparatus.ConditionGood, t.DamagedStock-in.Damaged); err != nil {
			return err
		}
		if err := shift(ctx, r, t.ID, apparatus.ConditionLost, apparatus.ConditionGood, t.LostStock-in.Lost); err != nil {
			return err
		}

		switch diff := in.Total - t.TotalStock; {
		case diff > 0:
			if err := r.Units.CreateBatch(ctx, provision(t.ID, diff, apparatus.ConditionGood)); err != nil {
				return err
			}
		case diff < 0:
			removed, err := r.Units.DeleteAvailable(ctx, t.ID, int(-diff))
			if err != nil {
				return err
			}
			if int64(removed) < -diff {
				return fmt.Errorf("%w: only %d idle units can be removed", apparatus.ErrStockTooLow, removed)
			}
		}

		if err := shift(ctx, r, t.ID, apparatus.ConditionGood, apparatus.ConditionDamaged, in.Damaged-t.DamagedStock); err != nil {
			return err
		}
		if err := shift(ctx, r, t.ID, apparatus.ConditionGood, apparatus.ConditionLost, in.Lost-t.LostStock); err != nil {
			return err
		}

		if err := r.Types.UpdateStock(ctx, t.ID, in.Total, in.Damaged, in.Lost); err != nil {
			return err
		}
		if snap, err = agg.Refresh(ctx, t.ID); err != nil {
			return err
		}
		return appendAudit(ctx, r, in.ActorID, audit.ActionStockUpdated,
			fmt.Sprintf("Stock of %s (Type ID %d) set to total %d, damaged %d, lost %d (was %d/%d/%d).",
				t.Name, t.ID, in.Total, in.Damaged, in.Lost, t.TotalStock, t.DamagedStock, t.LostStock))
	})
	s.logResult("update_stock", logrus.Fields{"type_id": in.TypeID, "actor_id": in.ActorID}, err)
	if err != nil {
		return stock.Snapshot{}, err
	}
	return snap, nil
}

// shift moves n units of a type from one condition to another. Units held by
// an open form are never picked.
func shift(ctx context.Context, r uow.Repos, typeID uint64, from, to apparatus.UnitCondition, n int64) error {
	if n <= 0 {
		return nil
	}
	units, err := r.Units.SelectForRetirement(ctx, typeID, from, statusFor(from), int(n))
	if err != nil {
		return err
	}
	if int64(len(units)) < n {
		return fmt.Errorf("%w: only %d %s units can become %s, need %d", apparatus.ErrStockTooLow, len(units), from, to, n)
	}
	ids := make([]uint64, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	if err := r.Units.SetCondition(ctx, ids, to); err != nil {
		return err
	}
	return r.Units.SetStatus(ctx, ids, statusFor(to))
}

// RemoveType deletes a type and its units. Types with any loan history stay.
func (s *Service) RemoveType(ctx context.Context, in RemoveTypeInput) error {
	if in.ActorID == 0 {
		return audit.ErrMissingActor
	}
	err := s.inTx(ctx, func(r uow.Repos) error {
		t, err := lockType(ctx, r, in.TypeID)
		if err != nil {
			return err
		}
		n, err := r.Items.CountByType(ctx, t.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d loan items", apparatus.ErrTypeInUse, n)
		}
		if err := r.Units.DeleteByType(ctx, t.ID); err != nil {
			return err
		}
		if err := r.Types.Delete(ctx, t.ID); err != nil {
			return err
		}
		return appendAudit(ctx, r, in.ActorID, audit.ActionTypeRemoved,
			fmt.Sprintf("Removed apparatus type %s (Type ID %d).", t.Name, t.ID))
	})
	s.logResult("remove_type", logrus.Fields{"type_id": in.TypeID, "actor_id": in.ActorID}, err)
	return err
}

// Refresh recomputes one type's availability on demand.
func (s *Service) Refresh(ctx context.Context, typeID uint64) (stock.Snapshot, error) {
	var snap stock.Snapshot
	err := s.inTx(ctx, func(r uow.Repos) error {
		if _, err := lockType(ctx, r, typeID); err != nil {
			return err
		}
		var err error
		snap, err = stock.FromRepos(r).Refresh(ctx, typeID)
		return err
	})
	return snap, err
}

func (s *Service) ListTypes(ctx context.Context) ([]apparatus.Type, error) {
	return s.uow.Repos().Types.List(ctx)
}

func (s *Service) GetType(ctx context.Context, typeID uint64) (*apparatus.Type, error) {
	t, err := s.uow.Repos().Types.GetByID(ctx, typeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", apparatus.ErrTypeNotFound, typeID)
	}
	return t, err
}

// ListUnits returns the units of a type in id order.
func (s *Service) ListUnits(ctx context.Context, typeID uint64) ([]apparatus.Unit, error) {
	if _, err := s.GetType(ctx, typeID); err != nil {
		return nil, err
	}
	return s.uow.Repos().Units.ListByType(ctx, typeID)
}

func (s *Service) logResult(op string, fields logrus.Fields, err error) {
	entry := s.log.WithFields(fields).WithField("op", op)
	switch {
	case err == nil:
		entry.Info("catalog operation committed")
	case errors.Is(err, apparatus.ErrTypeNotFound), errors.Is(err, apparatus.ErrDuplicateType),
		errors.Is(err, apparatus.ErrStockTooLow), errors.Is(err, apparatus.ErrTypeInUse),
		errors.Is(err, apparatus.ErrInvalidStock), errors.Is(err, audit.ErrMissingActor):
		entry.WithError(err).Info("catalog operation refused")
	default:
		entry.WithError(err).Error("catalog operation failed")
	}
}
