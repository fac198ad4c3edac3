package loan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/uow"
	"apparatus-lending/internal/usecase/stock"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MarkOverdue flags a loan past its expected return day. Bound units become
// lost and unavailable, leaving total and lost stock alone. The borrower is
// banned once the loan is at least Policy.BanThresholdDays late.
func (l *Ledger) MarkOverdue(ctx context.Context, in TransitionInput) (*OverdueDTO, error) {
	res := &OverdueDTO{}
	f, err := l.transition(ctx, "mark_overdue", in.FormID, in.ActorID, func(ctx context.Context, s *scope) error {
		*res = OverdueDTO{}
		if !s.form.Status.In(borrow.Outstanding...) {
			return invalidFrom("mark overdue", s.form.Status)
		}
		days := daysBetween(s.form.ExpectedReturnDate, s.today)
		if days < 1 {
			return borrow.ErrNotYetDue
		}
		res.DaysOverdue = days

		bound, err := s.repos.Items.BoundUnitIDs(ctx, s.form.ID)
		if err != nil {
			return err
		}
		if err := s.repos.Units.SetCondition(ctx, bound, apparatus.ConditionLost); err != nil {
			return err
		}
		if err := s.repos.Units.SetStatus(ctx, bound, apparatus.UnitUnavailable); err != nil {
			return err
		}

		s.form.Status = borrow.StatusOverdue
		s.stamp(in.ActorID, in.Remarks)
		if err := s.repos.Forms.Save(ctx, s.form); err != nil {
			return err
		}
		if err := s.repos.Items.SetStatusByForm(ctx, s.form.ID, borrow.ItemOverdue); err != nil {
			return err
		}

		msg := "Staff marked as overdue (Units status set to unavailable). "
		if days >= l.policy.BanThresholdDays {
			until := l.now().UTC().Add(l.policy.BanDuration)
			if err := s.repos.Borrowers.SetBanUntil(ctx, s.form.BorrowerID, &until); err != nil {
				return err
			}
			res.BanUntil = &until
			msg += fmt.Sprintf("%s ban applied until %s.", banLabel(l.policy.BanDuration), until.Format(time.DateTime))
		} else {
			msg += fmt.Sprintf("Grace period observed (Days Overdue: %d). No ban applied.", days)
		}

		if err := s.agg.RefreshAll(ctx, s.typeIDs()); err != nil {
			return err
		}
		return s.audit(ctx, in.ActorID, audit.ActionMarkedOverdue, withRemarks(msg, in.Remarks))
	})
	if err != nil {
		return nil, err
	}
	res.Form = *toDTO(f)
	return res, nil
}

// MarkDamaged closes a loan with one named unit damaged. That unit leaves
// circulation and its type's damaged_stock grows by one; every other bound
// unit is returned.
func (l *Ledger) MarkDamaged(ctx context.Context, in DamageInput) (*FormDTO, error) {
	if in.UnitID == 0 {
		return nil, fmt.Errorf("%w: unit is required", borrow.ErrInvalidInput)
	}
	f, err := l.transition(ctx, "mark_damaged", in.FormID, in.ActorID, func(ctx context.Context, s *scope) error {
		if !s.form.Status.In(returnable...) {
			return invalidFrom("mark damaged", s.form.Status)
		}
		bound, err := s.repos.Items.BoundUnitIDs(ctx, s.form.ID)
		if err != nil {
			return err
		}
		if !slices.Contains(bound, in.UnitID) {
			return fmt.Errorf("%w: unit %d, form %d", borrow.ErrUnitNotOnForm, in.UnitID, s.form.ID)
		}
		unit, err := s.repos.Units.GetForUpdate(ctx, in.UnitID)
		if err != nil {
			return err
		}

		damaged := []uint64{in.UnitID}
		if err := s.repos.Units.SetCondition(ctx, damaged, apparatus.ConditionDamaged); err != nil {
			return err
		}
		if err := s.repos.Units.SetStatus(ctx, damaged, apparatus.UnitUnavailable); err != nil {
			return err
		}
		if err := s.repos.Types.AdjustDamaged(ctx, unit.TypeID, 1); err != nil {
			return err
		}
		if err := s.repos.Items.SetStatusByUnit(ctx, s.form.ID, in.UnitID, borrow.ItemDamaged); err != nil {
			return err
		}

		others := slices.DeleteFunc(slices.Clone(bound), func(id uint64) bool { return id == in.UnitID })
		if err := s.repos.Units.RestoreLost(ctx, others); err != nil {
			return err
		}
		if err := s.repos.Units.SetStatus(ctx, others, apparatus.UnitAvailable); err != nil {
			return err
		}
		for _, id := range others {
			if err := s.repos.Items.SetStatusByUnit(ctx, s.form.ID, id, borrow.ItemReturned); err != nil {
				return err
			}
		}

		s.form.Status = borrow.StatusDamaged
		s.form.ActualReturnDate = &s.today
		s.stamp(in.ActorID, in.Remarks)
		if err := s.repos.Forms.Save(ctx, s.form); err != nil {
			return err
		}
		if err := s.repos.Borrowers.SetBanUntil(ctx, s.form.BorrowerID, nil); err != nil {
			return err
		}
		if err := s.agg.RefreshAll(ctx, s.typeIDs()); err != nil {
			return err
		}
		return s.audit(ctx, in.ActorID, audit.ActionReturnedWithIssue,
			withRemarks(fmt.Sprintf("Unit ID %d returned damaged.", in.UnitID), in.Remarks))
	})
	if err != nil {
		return nil, err
	}
	return toDTO(f), nil
}

// RestoreDamagedUnit puts a repaired unit back into circulation and takes
// one off its type's damaged_stock, never below zero.
func (l *Ledger) RestoreDamagedUnit(ctx context.Context, in RestoreInput) (*UnitDTO, error) {
	if in.ActorID == 0 {
		return nil, audit.ErrMissingActor
	}
	var out *UnitDTO
	err := l.inTx(ctx, "restore_unit", func(r uow.Repos) error {
		peek, err := r.Units.GetByID(ctx, in.UnitID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", apparatus.ErrUnitNotFound, in.UnitID)
			}
			return err
		}
		if _, err := r.Types.LockByIDs(ctx, []uint64{peek.TypeID}); err != nil {
			return err
		}
		unit, err := r.Units.GetForUpdate(ctx, in.UnitID)
		if err != nil {
			return err
		}
		if unit.Condition != apparatus.ConditionDamaged {
			return fmt.Errorf("%w: unit %d is %s", apparatus.ErrNotDamaged, unit.ID, unit.Condition)
		}

		ids := []uint64{unit.ID}
		if err := r.Units.SetCondition(ctx, ids, apparatus.ConditionGood); err != nil {
			return err
		}
		if err := r.Units.SetStatus(ctx, ids, apparatus.UnitAvailable); err != nil {
			return err
		}
		if err := r.Types.AdjustDamaged(ctx, unit.TypeID, -1); err != nil {
			return err
		}
		if _, err := stock.FromRepos(r).Refresh(ctx, unit.TypeID); err != nil {
			return err
		}

		e, err := audit.NewEntry(nil, in.ActorID, audit.ActionUnitRestored,
			fmt.Sprintf("Unit ID %d (Type ID %d) restored from damaged to good condition.", unit.ID, unit.TypeID))
		if err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, e); err != nil {
			return err
		}
		out = &UnitDTO{UnitID: unit.ID, TypeID: unit.TypeID, Condition: string(apparatus.ConditionGood), Status: string(apparatus.UnitAvailable)}
		return nil
	})
	l.logResult("restore_unit", logrus.Fields{"unit_id": in.UnitID, "actor_id": in.ActorID}, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// daysBetween counts whole UTC calendar days from due to today.
func daysBetween(due, today time.Time) int {
	d := time.Date(due.UTC().Year(), due.UTC().Month(), due.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(d).Hours() / 24)
}

func banLabel(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d-day", int(d/(24*time.Hour)))
	}
	return d.String()
}
