package borrower

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("borrower not found")

// Borrower is the slice of the user record the lending core reads and
// writes. Credentials and profile fields belong to the account service.
type Borrower struct {
	ID           uint64     `gorm:"primaryKey;column:id" json:"id"`
	FirstName    string     `gorm:"column:firstname;size:80" json:"firstname"`
	LastName     string     `gorm:"column:lastname;size:80" json:"lastname"`
	BanUntilDate *time.Time `gorm:"column:ban_until_date" json:"ban_until_date,omitempty"`
}

func (Borrower) TableName() string { return "users" }

func (b Borrower) BannedAt(now time.Time) bool {
	return b.BanUntilDate != nil && b.BanUntilDate.After(now)
}

type Repository interface {
	GetByID(ctx context.Context, id uint64) (*Borrower, error)
	SetBanUntil(ctx context.Context, id uint64, until *time.Time) error
}
