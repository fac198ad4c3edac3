package mysql

import (
	"context"

	"apparatus-lending/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Types:     &TypeRepository{db: db},
		Units:     &UnitRepository{db: db},
		Forms:     &FormRepository{db: db},
		Items:     &ItemRepository{db: db},
		Audit:     &AuditRepository{db: db},
		Borrowers: &BorrowerRepository{db: db},
	}
}

// WithinTx runs fn against repositories bound to one transaction. Storage
// conflicts that aborted the transaction come back wrapped in uow.ErrRetryable.
func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
	return classifyStorageError(err)
}

func (u *GormUoW) Repos() uow.Repos { return reposFor(u.db) }
