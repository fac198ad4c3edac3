package catalog

import (
	"fmt"

	"apparatus-lending/internal/domain/apparatus"
)

type CreateTypeInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Size        string `json:"size"`
	Material    string `json:"material"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Total       int64  `json:"total_stock"`
	Damaged     int64  `json:"damaged_stock"`
	Lost        int64  `json:"lost_stock"`
	ActorID     uint64 `json:"-"`
}

type UpdateStockInput struct {
	TypeID  uint64 `json:"type_id"`
	Total   int64  `json:"total_stock"`
	Damaged int64  `json:"damaged_stock"`
	Lost    int64  `json:"lost_stock"`
	ActorID uint64 `json:"-"`
}

type RemoveTypeInput struct {
	TypeID  uint64 `json:"type_id"`
	ActorID uint64 `json:"-"`
}

func checkCounts(total, damaged, lost int64) error {
	if total < 0 || damaged < 0 || lost < 0 {
		return fmt.Errorf("%w: counts must not be negative", apparatus.ErrInvalidStock)
	}
	if damaged+lost > total {
		return fmt.Errorf("%w: damaged plus lost (%d) exceeds total (%d)", apparatus.ErrInvalidStock, damaged+lost, total)
	}
	return nil
}

// provision builds the unit rows for n fresh items of one condition.
func provision(typeID uint64, n int64, cond apparatus.UnitCondition) []apparatus.Unit {
	status := statusFor(cond)
	out := make([]apparatus.Unit, n)
	for i := range out {
		out[i] = apparatus.Unit{TypeID: typeID, Condition: cond, Status: status}
	}
	return out
}

// statusFor is the resting status of an idle unit in the given condition.
func statusFor(cond apparatus.UnitCondition) apparatus.UnitStatus {
	if cond == apparatus.ConditionGood {
		return apparatus.UnitAvailable
	}
	return apparatus.UnitUnavailable
}
