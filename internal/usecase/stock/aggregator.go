// Package stock keeps the cached availability of apparatus types in line
// with the unit ledger and the pending-request queue.
package stock

import (
	"context"
	"errors"
	"fmt"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/uow"

	"gorm.io/gorm"
)

// Snapshot is one recomputation of a type's availability.
type Snapshot struct {
	TypeID       uint64               `json:"type_id"`
	Total        int64                `json:"total_stock"`
	Damaged      int64                `json:"damaged_stock"`
	Lost         int64                `json:"lost_stock"`
	CurrentlyOut int64                `json:"currently_out"`
	Pending      int64                `json:"pending_quantity"`
	Available    int64                `json:"available_stock"`
	Status       apparatus.TypeStatus `json:"status"`
}

// Compute applies available = max(0, total - damaged - lost - out - pending).
func Compute(total, damaged, lost, out, pending int64) (int64, apparatus.TypeStatus) {
	avail := total - damaged - lost - out - pending
	if avail <= 0 {
		return 0, apparatus.TypeUnavailable
	}
	return avail, apparatus.TypeAvailable
}

// Aggregator must be built on repositories bound to the caller's transaction,
// with the type rows it refreshes already locked.
type Aggregator struct {
	types apparatus.TypeRepository
	units apparatus.UnitRepository
	items borrow.ItemRepository
}

func New(types apparatus.TypeRepository, units apparatus.UnitRepository, items borrow.ItemRepository) *Aggregator {
	return &Aggregator{types: types, units: units, items: items}
}

func FromRepos(r uow.Repos) *Aggregator { return New(r.Types, r.Units, r.Items) }

// PendingQuantity counts requested units of the type on forms still waiting
// for approval.
func (a *Aggregator) PendingQuantity(ctx context.Context, typeID uint64) (int64, error) {
	return a.items.CountPendingByType(ctx, typeID)
}

// AvailableForNew is the unclamped capacity a new request may claim. It goes
// negative when stock was reduced below what is already promised.
func (a *Aggregator) AvailableForNew(ctx context.Context, t apparatus.Type) (int64, error) {
	out, err := a.units.CountCurrentlyOut(ctx, t.ID)
	if err != nil {
		return 0, err
	}
	pending, err := a.PendingQuantity(ctx, t.ID)
	if err != nil {
		return 0, err
	}
	return t.PhysicalStock() - out - pending, nil
}

// Refresh recomputes and stores available_stock and status for one type.
func (a *Aggregator) Refresh(ctx context.Context, typeID uint64) (Snapshot, error) {
	t, err := a.types.GetByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, fmt.Errorf("%w: %d", apparatus.ErrTypeNotFound, typeID)
		}
		return Snapshot{}, err
	}
	out, err := a.units.CountCurrentlyOut(ctx, typeID)
	if err != nil {
		return Snapshot{}, err
	}
	pending, err := a.PendingQuantity(ctx, typeID)
	if err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		TypeID:       typeID,
		Total:        t.TotalStock,
		Damaged:      t.DamagedStock,
		Lost:         t.LostStock,
		CurrentlyOut: out,
		Pending:      pending,
	}
	s.Available, s.Status = Compute(s.Total, s.Damaged, s.Lost, s.CurrentlyOut, s.Pending)
	if err := a.types.SaveAvailability(ctx, typeID, s.Available, s.Status); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// RefreshAll refreshes every listed type, stopping at the first failure.
func (a *Aggregator) RefreshAll(ctx context.Context, typeIDs []uint64) error {
	for _, id := range typeIDs {
		if _, err := a.Refresh(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
