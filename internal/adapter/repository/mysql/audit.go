package mysql

import (
	"context"

	"apparatus-lending/internal/domain/audit"

	"gorm.io/gorm"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

// Append only ever inserts; entries are never updated or deleted.
func (r *AuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	if e.ActorID == 0 {
		return audit.ErrMissingActor
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) ListByForm(ctx context.Context, formID uint64) ([]audit.Entry, error) {
	var out []audit.Entry
	err := r.db.WithContext(ctx).Where("form_id = ?", formID).Order("id ASC").Find(&out).Error
	return out, err
}
