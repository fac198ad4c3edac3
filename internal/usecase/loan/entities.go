package loan

import (
	"time"

	"apparatus-lending/internal/domain/borrow"
)

type LineInput struct {
	TypeID   uint64 `json:"type_id"`
	Quantity int    `json:"quantity"`
}

type SubmitInput struct {
	BorrowerID         uint64          `json:"borrower_id"`
	FormType           borrow.FormType `json:"form_type"`
	Lines              []LineInput     `json:"items"`
	BorrowDate         time.Time       `json:"borrow_date"`
	ExpectedReturnDate time.Time       `json:"expected_return_date"`
}

// TransitionInput drives every form-level status change. ActorID is the
// staff member, or the borrower for MarkChecking.
type TransitionInput struct {
	FormID  uint64 `json:"form_id"`
	ActorID uint64 `json:"actor_id"`
	Remarks string `json:"remarks"`
}

type DamageInput struct {
	FormID  uint64 `json:"form_id"`
	UnitID  uint64 `json:"unit_id"`
	ActorID uint64 `json:"actor_id"`
	Remarks string `json:"remarks"`
}

type RestoreInput struct {
	UnitID  uint64 `json:"unit_id"`
	ActorID uint64 `json:"actor_id"`
}

type FormDTO struct {
	ID                 uint64          `json:"id"`
	Reference          string          `json:"reference"`
	BorrowerID         uint64          `json:"borrower_id"`
	FormType           borrow.FormType `json:"form_type"`
	Status             borrow.Status   `json:"status"`
	RequestDate        time.Time       `json:"request_date"`
	BorrowDate         time.Time       `json:"borrow_date"`
	ExpectedReturnDate time.Time       `json:"expected_return_date"`
	ActualReturnDate   *time.Time      `json:"actual_return_date,omitempty"`
	IsLateReturn       bool            `json:"is_late_return"`
	StaffID            *uint64         `json:"staff_id,omitempty"`
	StaffRemarks       *string         `json:"staff_remarks,omitempty"`
}

type OverdueDTO struct {
	Form        FormDTO    `json:"form"`
	DaysOverdue int        `json:"days_overdue"`
	BanUntil    *time.Time `json:"ban_until,omitempty"`
}

type UnitDTO struct {
	UnitID    uint64 `json:"unit_id"`
	TypeID    uint64 `json:"type_id"`
	Condition string `json:"current_condition"`
	Status    string `json:"current_status"`
}

func toDTO(f *borrow.Form) *FormDTO {
	return &FormDTO{
		ID:                 f.ID,
		Reference:          f.Reference,
		BorrowerID:         f.BorrowerID,
		FormType:           f.FormType,
		Status:             f.Status,
		RequestDate:        f.RequestDate,
		BorrowDate:         f.BorrowDate,
		ExpectedReturnDate: f.ExpectedReturnDate,
		ActualReturnDate:   f.ActualReturnDate,
		IsLateReturn:       f.IsLateReturn,
		StaffID:            f.StaffID,
		StaffRemarks:       f.StaffRemarks,
	}
}
