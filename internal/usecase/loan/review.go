package loan

import (
	"context"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
)

// Approve binds every pending item of a waiting form to a concrete unit,
// lowest unit id first. Capacity is checked again under the type locks; any
// shortfall aborts the whole approval.
func (l *Ledger) Approve(ctx context.Context, in TransitionInput) (*FormDTO, error) {
	f, err := l.transition(ctx, "approve", in.FormID, in.ActorID, func(ctx context.Context, s *scope) error {
		switch s.form.Status {
		case borrow.StatusWaiting:
		case borrow.StatusApproved, borrow.StatusBorrowed:
			return borrow.ErrAlreadyApproved
		default:
			return invalidFrom("approve", s.form.Status)
		}

		target, itemStatus := borrow.StatusApproved, borrow.ItemApproved
		if s.form.FormType == borrow.TypeBorrow {
			target, itemStatus = borrow.StatusBorrowed, borrow.ItemBorrowed
		}

		pending, err := s.repos.Items.ListPendingForUpdate(ctx, s.form.ID)
		if err != nil {
			return err
		}
		byType := make(map[uint64][]borrow.Item)
		for _, it := range pending {
			byType[it.TypeID] = append(byType[it.TypeID], it)
		}

		for _, typeID := range s.typeIDs() {
			items := byType[typeID]
			if len(items) == 0 {
				continue
			}
			need := int64(len(items))
			avail, err := s.repos.Units.CountAvailable(ctx, typeID)
			if err != nil {
				return err
			}
			if avail < need {
				return &borrow.StockError{TypeID: typeID, TypeName: s.typeName(typeID), Requested: need, Available: avail, Err: borrow.ErrStockMismatch}
			}
			units, err := s.repos.Units.SelectForAllocation(ctx, typeID, len(items))
			if err != nil {
				return err
			}
			if len(units) != len(items) {
				return &borrow.StockError{TypeID: typeID, TypeName: s.typeName(typeID), Requested: need, Available: int64(len(units)), Err: borrow.ErrStockMismatch}
			}

			unitIDs := make([]uint64, len(units))
			for i, u := range units {
				unitIDs[i] = u.ID
			}
			if err := s.repos.Units.SetStatus(ctx, unitIDs, apparatus.UnitBorrowed); err != nil {
				return err
			}
			for i, it := range items {
				if err := s.repos.Items.AssignUnit(ctx, it.ID, unitIDs[i], itemStatus); err != nil {
					return err
				}
			}
		}

		s.form.Status = target
		s.stamp(in.ActorID, in.Remarks)
		if err := s.repos.Forms.Save(ctx, s.form); err != nil {
			return err
		}
		if err := s.agg.RefreshAll(ctx, s.typeIDs()); err != nil {
			return err
		}
		return s.audit(ctx, in.ActorID, audit.ActionApproved, in.Remarks)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(f), nil
}

// Reject closes a waiting form. No unit was ever bound, but the form's hold on
// pending capacity goes away, so availability is refreshed.
func (l *Ledger) Reject(ctx context.Context, in TransitionInput) (*FormDTO, error) {
	f, err := l.transition(ctx, "reject", in.FormID, in.ActorID, func(ctx context.Context, s *scope) error {
		if s.form.Status != borrow.StatusWaiting {
			return invalidFrom("reject", s.form.Status)
		}
		s.form.Status = borrow.StatusRejected
		s.stamp(in.ActorID, in.Remarks)
		if err := s.repos.Forms.Save(ctx, s.form); err != nil {
			return err
		}
		if err := s.repos.Items.SetStatusByForm(ctx, s.form.ID, borrow.ItemRejected); err != nil {
			return err
		}
		if err := s.agg.RefreshAll(ctx, s.typeIDs()); err != nil {
			return err
		}
		return s.audit(ctx, in.ActorID, audit.ActionRejected, in.Remarks)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(f), nil
}
