package mysql

import (
	"context"
	"time"

	"apparatus-lending/internal/domain/borrower"

	"gorm.io/gorm"
)

type BorrowerRepository struct{ db *gorm.DB }

func NewBorrowerRepository(db *gorm.DB) *BorrowerRepository { return &BorrowerRepository{db: db} }

func (r *BorrowerRepository) GetByID(ctx context.Context, id uint64) (*borrower.Borrower, error) {
	var out borrower.Borrower
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

// SetBanUntil sets or, with a nil until, clears the ban expiry.
func (r *BorrowerRepository) SetBanUntil(ctx context.Context, id uint64, until *time.Time) error {
	return r.db.WithContext(ctx).Model(&borrower.Borrower{}).
		Where("id = ?", id).
		Update("ban_until_date", until).Error
}
