package mysql

import (
	"context"
	"sort"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/borrow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

type TypeRepository struct{ db *gorm.DB }

func NewTypeRepository(db *gorm.DB) *TypeRepository { return &TypeRepository{db: db} }

func (r *TypeRepository) Create(ctx context.Context, t *apparatus.Type) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TypeRepository) GetByID(ctx context.Context, id uint64) (*apparatus.Type, error) {
	var out apparatus.Type
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *TypeRepository) List(ctx context.Context) ([]apparatus.Type, error) {
	var out []apparatus.Type
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *TypeRepository) ExistsDuplicate(ctx context.Context, name, category, size, material string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&apparatus.Type{}).
		Where("name = ? AND category = ? AND size = ? AND material = ?", name, category, size, material).
		Count(&n).Error
	return n > 0, err
}

// LockByIDs issues one SELECT ... FOR UPDATE per id in ascending order so
// every writer acquires type locks in the same global order.
func (r *TypeRepository) LockByIDs(ctx context.Context, ids []uint64) ([]apparatus.Type, error) {
	ordered := sortedUnique(ids)
	out := make([]apparatus.Type, 0, len(ordered))
	for _, id := range ordered {
		var t apparatus.Type
		if err := r.db.WithContext(ctx).Clauses(forUpdate).Where("id = ?", id).First(&t).Error; err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TypeRepository) SaveAvailability(ctx context.Context, id uint64, available int64, status apparatus.TypeStatus) error {
	return r.db.WithContext(ctx).Model(&apparatus.Type{}).
		Where("id = ?", id).
		Updates(map[string]any{"available_stock": available, "status": status}).Error
}

func (r *TypeRepository) AdjustDamaged(ctx context.Context, id uint64, delta int64) error {
	return r.db.WithContext(ctx).Model(&apparatus.Type{}).
		Where("id = ?", id).
		Update("damaged_stock", gorm.Expr("CASE WHEN damaged_stock + ? < 0 THEN 0 ELSE damaged_stock + ? END", delta, delta)).Error
}

func (r *TypeRepository) UpdateStock(ctx context.Context, id uint64, total, damaged, lost int64) error {
	return r.db.WithContext(ctx).Model(&apparatus.Type{}).
		Where("id = ?", id).
		Updates(map[string]any{"total_stock": total, "damaged_stock": damaged, "lost_stock": lost}).Error
}

func (r *TypeRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&apparatus.Type{}).Error
}

type UnitRepository struct{ db *gorm.DB }

func NewUnitRepository(db *gorm.DB) *UnitRepository { return &UnitRepository{db: db} }

func (r *UnitRepository) CountAvailable(ctx context.Context, typeID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&apparatus.Unit{}).
		Where("type_id = ? AND current_status = ?", typeID, apparatus.UnitAvailable).
		Count(&n).Error
	return n, err
}

func (r *UnitRepository) CountCurrentlyOut(ctx context.Context, typeID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&apparatus.Unit{}).
		Where("type_id = ? AND current_status IN ?", typeID, apparatus.OutStatuses).
		Count(&n).Error
	return n, err
}

func (r *UnitRepository) SelectForAllocation(ctx context.Context, typeID uint64, count int) ([]apparatus.Unit, error) {
	if count <= 0 {
		return nil, nil
	}
	var out []apparatus.Unit
	err := r.db.WithContext(ctx).Clauses(forUpdate).
		Where("type_id = ? AND current_status = ?", typeID, apparatus.UnitAvailable).
		Order("id ASC").
		Limit(count).
		Find(&out).Error
	return out, err
}

func (r *UnitRepository) SelectForRetirement(ctx context.Context, typeID uint64, cond apparatus.UnitCondition, status apparatus.UnitStatus, n int) ([]apparatus.Unit, error) {
	if n <= 0 {
		return nil, nil
	}
	held := r.db.Table("borrow_items AS bi").
		Select("bi.unit_id").
		Joins("JOIN borrow_forms f ON f.id = bi.form_id").
		Where("bi.unit_id IS NOT NULL AND f.status IN ?", borrow.Active)

	var out []apparatus.Unit
	err := r.db.WithContext(ctx).Clauses(forUpdate).
		Where("type_id = ? AND current_condition = ? AND current_status = ? AND id NOT IN (?)", typeID, cond, status, held).
		Order("id DESC").
		Limit(n).
		Find(&out).Error
	return out, err
}

func (r *UnitRepository) SetStatus(ctx context.Context, ids []uint64, status apparatus.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&apparatus.Unit{}).
		Where("id IN ?", ids).
		Update("current_status", status).Error
}

func (r *UnitRepository) SetCondition(ctx context.Context, ids []uint64, cond apparatus.UnitCondition) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&apparatus.Unit{}).
		Where("id IN ?", ids).
		Update("current_condition", cond).Error
}

func (r *UnitRepository) RestoreLost(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&apparatus.Unit{}).
		Where("id IN ? AND current_condition = ?", ids, apparatus.ConditionLost).
		Update("current_condition", apparatus.ConditionGood).Error
}

func (r *UnitRepository) GetForUpdate(ctx context.Context, id uint64) (*apparatus.Unit, error) {
	var out apparatus.Unit
	res := r.db.WithContext(ctx).Clauses(forUpdate).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *UnitRepository) GetByID(ctx context.Context, id uint64) (*apparatus.Unit, error) {
	var out apparatus.Unit
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *UnitRepository) ListByType(ctx context.Context, typeID uint64) ([]apparatus.Unit, error) {
	var out []apparatus.Unit
	err := r.db.WithContext(ctx).Where("type_id = ?", typeID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *UnitRepository) CreateBatch(ctx context.Context, units []apparatus.Unit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *UnitRepository) DeleteAvailable(ctx context.Context, typeID uint64, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	referenced := r.db.Model(&borrow.Item{}).Select("unit_id").Where("unit_id IS NOT NULL")

	var victims []apparatus.Unit
	err := r.db.WithContext(ctx).Clauses(forUpdate).
		Where("type_id = ? AND current_status = ? AND id NOT IN (?)", typeID, apparatus.UnitAvailable, referenced).
		Order("id DESC").
		Limit(n).
		Find(&victims).Error
	if err != nil || len(victims) == 0 {
		return 0, err
	}
	ids := make([]uint64, len(victims))
	for i, u := range victims {
		ids[i] = u.ID
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&apparatus.Unit{}).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *UnitRepository) DeleteByType(ctx context.Context, typeID uint64) error {
	return r.db.WithContext(ctx).Where("type_id = ?", typeID).Delete(&apparatus.Unit{}).Error
}

func sortedUnique(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
