package loan

import (
	"context"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
)

var returnable = []borrow.Status{borrow.StatusApproved, borrow.StatusBorrowed, borrow.StatusChecking, borrow.StatusOverdue}

// MarkChecking is the borrower telling staff the items are back for
// inspection. Bound units move to checking; their condition is left for
// staff to verify.
func (l *Ledger) MarkChecking(ctx context.Context, in TransitionInput) (*FormDTO, error) {
	f, err := l.transition(ctx, "mark_checking", in.FormID, in.ActorID, func(ctx context.Context, s *scope) error {
		if s.form.BorrowerID != in.ActorID {
			return borrow.ErrNotOwner
		}
		if !s.form.Status.In(borrow.StatusApproved, borrow.StatusBorrowed, borrow.StatusOverdue) {
			return invalidFrom("start a return for", s.form.Status)
		}
		if s.form.Status == borrow.StatusOverdue {
			s.form.IsLateReturn = true
		}

		s.form.Status = borrow.StatusChecking
		s.form.ActualReturnDate = &s.today
		s.form.StaffRemarks = nil
		if in.Remarks != "" {
			s.form.StaffRemarks = &in.Remarks
		}
		if err := s.repos.Forms.Save(ctx, s.form); err != nil {
			return err
		}
		if err := s.repos.Items.SetStatusByForm(ctx, s.form.ID, borrow.ItemChecking); err != nil {
			return err
		}
		bound, err := s.repos.Items.BoundUnitIDs(ctx, s.form.ID)
		if err != nil {
			return err
		}
		if err := s.repos.Units.SetStatus(ctx, bound, apparatus.UnitChecking); err != nil {
			return err
		}
		if err := s.agg.RefreshAll(ctx, s.typeIDs()); err != nil {
			return err
		}
		return s.audit(ctx, in.ActorID, audit.ActionInitiatedReturn,
			withRemarks("Student requested return verification.", in.Remarks))
	})
	if err != nil {
		return nil, err
	}
	return toDTO(f), nil
}

// ConfirmReturn closes a loan whose units came back in good order. A form
// that went through overdue stays flagged late.
func (l *Ledger) ConfirmReturn(ctx context.Context, in TransitionInput) (*FormDTO, error) {
	return l.closeReturn(ctx, "confirm_return", in, false)
}

// ConfirmLateReturn is ConfirmReturn for a loan staff judge to be late even
// though it was never flagged overdue.
func (l *Ledger) ConfirmLateReturn(ctx context.Context, in TransitionInput) (*FormDTO, error) {
	return l.closeReturn(ctx, "confirm_late_return", in, true)
}

func (l *Ledger) closeReturn(ctx context.Context, op string, in TransitionInput, late bool) (*FormDTO, error) {
	f, err := l.transition(ctx, op, in.FormID, in.ActorID, func(ctx context.Context, s *scope) error {
		if !s.form.Status.In(returnable...) {
			return invalidFrom("confirm the return of", s.form.Status)
		}
		if late || s.form.Status == borrow.StatusOverdue {
			s.form.IsLateReturn = true
		}

		bound, err := s.repos.Items.BoundUnitIDs(ctx, s.form.ID)
		if err != nil {
			return err
		}
		// reverses the lost marking left by an overdue flag
		if err := s.repos.Units.RestoreLost(ctx, bound); err != nil {
			return err
		}
		if err := s.repos.Units.SetStatus(ctx, bound, apparatus.UnitAvailable); err != nil {
			return err
		}

		s.form.Status = borrow.StatusReturned
		s.form.ActualReturnDate = &s.today
		s.stamp(in.ActorID, in.Remarks)
		if err := s.repos.Forms.Save(ctx, s.form); err != nil {
			return err
		}
		if err := s.repos.Items.SetStatusByForm(ctx, s.form.ID, borrow.ItemReturned); err != nil {
			return err
		}
		if err := s.repos.Borrowers.SetBanUntil(ctx, s.form.BorrowerID, nil); err != nil {
			return err
		}
		if err := s.agg.RefreshAll(ctx, s.typeIDs()); err != nil {
			return err
		}

		action, msg := audit.ActionConfirmedReturn, "Staff verified return."
		if late {
			action, msg = audit.ActionConfirmedLateReturn, "Staff confirmed late return."
		}
		return s.audit(ctx, in.ActorID, action, withRemarks(msg, in.Remarks))
	})
	if err != nil {
		return nil, err
	}
	return toDTO(f), nil
}
