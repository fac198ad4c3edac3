package mysql

import (
	"context"
	"fmt"
	"time"

	"apparatus-lending/internal/domain/borrow"

	"gorm.io/gorm"
)

type FormRepository struct{ db *gorm.DB }

func NewFormRepository(db *gorm.DB) *FormRepository { return &FormRepository{db: db} }

func (r *FormRepository) Create(ctx context.Context, f *borrow.Form) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FormRepository) Save(ctx context.Context, f *borrow.Form) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *FormRepository) GetByID(ctx context.Context, id uint64) (*borrow.Form, error) {
	var out borrow.Form
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *FormRepository) GetForUpdate(ctx context.Context, id uint64) (*borrow.Form, error) {
	var out borrow.Form
	res := r.db.WithContext(ctx).Clauses(forUpdate).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *FormRepository) List(ctx context.Context, f borrow.FormFilter) ([]borrow.Form, error) {
	q := r.db.WithContext(ctx).Model(&borrow.Form{})
	if f.BorrowerID != 0 {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.DueBefore != nil {
		q = q.Where("expected_return_date < ?", *f.DueBefore)
	}
	if f.NewestFirst {
		q = q.Order("id DESC")
	} else {
		q = q.Order("id ASC")
	}
	var out []borrow.Form
	return out, q.Find(&out).Error
}

func (r *FormRepository) CountByBorrower(ctx context.Context, borrowerID uint64, statuses []borrow.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&borrow.Form{}).
		Where("borrower_id = ? AND status IN ?", borrowerID, statuses).
		Count(&n).Error
	return n, err
}

func (r *FormRepository) ExistsPastDue(ctx context.Context, borrowerID uint64, statuses []borrow.Status, before time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&borrow.Form{}).
		Where("borrower_id = ? AND status IN ? AND expected_return_date < ?", borrowerID, statuses, before).
		Count(&n).Error
	return n > 0, err
}

func (r *FormRepository) FindConflictingTypeName(ctx context.Context, borrowerID uint64, typeIDs []uint64, statuses []borrow.Status) (string, error) {
	if len(typeIDs) == 0 {
		return "", nil
	}
	var names []string
	err := r.db.WithContext(ctx).Table("borrow_forms AS f").
		Joins("JOIN borrow_items bi ON bi.form_id = f.id").
		Joins("JOIN apparatus_types t ON t.id = bi.type_id").
		Where("f.borrower_id = ? AND f.status IN ? AND bi.type_id IN ?", borrowerID, statuses, typeIDs).
		Order("bi.id ASC").
		Limit(1).
		Pluck("t.name", &names).Error
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

type ItemRepository struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) *ItemRepository { return &ItemRepository{db: db} }

func (r *ItemRepository) CreateBatch(ctx context.Context, items []borrow.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *ItemRepository) ListByForm(ctx context.Context, formID uint64) ([]borrow.Item, error) {
	var out []borrow.Item
	err := r.db.WithContext(ctx).Where("form_id = ?", formID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *ItemRepository) ListPendingForUpdate(ctx context.Context, formID uint64) ([]borrow.Item, error) {
	var out []borrow.Item
	err := r.db.WithContext(ctx).Clauses(forUpdate).
		Where("form_id = ? AND unit_id IS NULL AND item_status = ?", formID, borrow.ItemPending).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *ItemRepository) DistinctTypeIDs(ctx context.Context, formID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&borrow.Item{}).
		Where("form_id = ?", formID).
		Distinct().
		Order("type_id ASC").
		Pluck("type_id", &ids).Error
	return ids, err
}

func (r *ItemRepository) BoundUnitIDs(ctx context.Context, formID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&borrow.Item{}).
		Where("form_id = ? AND unit_id IS NOT NULL", formID).
		Order("unit_id ASC").
		Pluck("unit_id", &ids).Error
	return ids, err
}

func (r *ItemRepository) AssignUnit(ctx context.Context, itemID, unitID uint64, status borrow.ItemStatus) error {
	res := r.db.WithContext(ctx).Model(&borrow.Item{}).
		Where("id = ? AND unit_id IS NULL", itemID).
		Updates(map[string]any{"unit_id": unitID, "item_status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("borrow item %d already bound", itemID)
	}
	return nil
}

func (r *ItemRepository) SetStatusByForm(ctx context.Context, formID uint64, status borrow.ItemStatus) error {
	return r.db.WithContext(ctx).Model(&borrow.Item{}).
		Where("form_id = ?", formID).
		Update("item_status", status).Error
}

func (r *ItemRepository) SetStatusByUnit(ctx context.Context, formID, unitID uint64, status borrow.ItemStatus) error {
	return r.db.WithContext(ctx).Model(&borrow.Item{}).
		Where("form_id = ? AND unit_id = ?", formID, unitID).
		Update("item_status", status).Error
}

func (r *ItemRepository) CountPendingByType(ctx context.Context, typeID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&borrow.Item{}).
		Joins("JOIN borrow_forms ON borrow_forms.id = borrow_items.form_id").
		Where("borrow_items.type_id = ? AND borrow_forms.status = ?", typeID, borrow.StatusWaiting).
		Count(&n).Error
	return n, err
}

func (r *ItemRepository) CountByType(ctx context.Context, typeID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&borrow.Item{}).Where("type_id = ?", typeID).Count(&n).Error
	return n, err
}

func (r *ItemRepository) ListDetailed(ctx context.Context, formID uint64) ([]borrow.ItemDetail, error) {
	var out []borrow.ItemDetail
	err := r.db.WithContext(ctx).Table("borrow_items AS bi").
		Select("bi.id AS item_id, bi.type_id, t.name AS type_name, bi.unit_id, " +
			"u.current_condition AS unit_condition, u.current_status AS unit_status, bi.item_status").
		Joins("JOIN apparatus_types t ON t.id = bi.type_id").
		Joins("LEFT JOIN apparatus_units u ON u.id = bi.unit_id").
		Where("bi.form_id = ?", formID).
		Order("bi.id ASC").
		Scan(&out).Error
	return out, err
}

func (r *ItemRepository) SummarizeByForms(ctx context.Context, formIDs []uint64) ([]borrow.TypeQuantity, error) {
	if len(formIDs) == 0 {
		return nil, nil
	}
	var out []borrow.TypeQuantity
	err := r.db.WithContext(ctx).Table("borrow_items AS bi").
		Select("bi.form_id, bi.type_id, t.name, COUNT(bi.id) AS quantity").
		Joins("JOIN apparatus_types t ON t.id = bi.type_id").
		Where("bi.form_id IN ?", formIDs).
		Group("bi.form_id, bi.type_id, t.name").
		Order("bi.form_id DESC, bi.type_id ASC").
		Scan(&out).Error
	return out, err
}
