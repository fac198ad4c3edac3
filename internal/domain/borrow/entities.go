package borrow

import (
	"time"
)

type FormType string

const (
	TypeBorrow      FormType = "borrow"
	TypeReservation FormType = "reservation"
)

type Status string

const (
	StatusWaiting  Status = "waiting_for_approval"
	StatusApproved Status = "approved"
	StatusBorrowed Status = "borrowed"
	StatusRejected Status = "rejected"
	StatusChecking Status = "checking"
	StatusOverdue  Status = "overdue"
	StatusReturned Status = "returned"
	StatusDamaged  Status = "damaged"
)

// ItemStatus mirrors the form's lifecycle stage per unit of demand.
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemBorrowed ItemStatus = "borrowed"
	ItemRejected ItemStatus = "rejected"
	ItemChecking ItemStatus = "checking"
	ItemOverdue  ItemStatus = "overdue"
	ItemReturned ItemStatus = "returned"
	ItemDamaged  ItemStatus = "damaged"
)

var (
	// NonTerminal statuses block a new request for the same type.
	NonTerminal = []Status{StatusWaiting, StatusApproved, StatusBorrowed, StatusChecking}
	// Active statuses are shown as a borrower's open forms.
	Active = []Status{StatusWaiting, StatusApproved, StatusBorrowed, StatusChecking, StatusOverdue}
	// Outstanding statuses hold physical units that are due back.
	Outstanding = []Status{StatusApproved, StatusBorrowed}

	AllStatuses = []Status{
		StatusWaiting, StatusApproved, StatusBorrowed, StatusRejected,
		StatusChecking, StatusOverdue, StatusReturned, StatusDamaged,
	}
)

func (s Status) In(set ...Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s.In(StatusRejected, StatusReturned, StatusDamaged)
}

// Form is one borrowing transaction (borrow_forms).
type Form struct {
	ID                 uint64     `gorm:"primaryKey;column:id" json:"id"`
	Reference          string     `gorm:"column:reference;size:32;uniqueIndex" json:"reference"`
	BorrowerID         uint64     `gorm:"column:borrower_id;not null;index:idx_forms_borrower_status" json:"borrower_id"`
	FormType           FormType   `gorm:"column:form_type;size:20;not null" json:"form_type"`
	Status             Status     `gorm:"column:status;size:32;not null;index:idx_forms_borrower_status;index:idx_forms_status" json:"status"`
	RequestDate        time.Time  `gorm:"column:request_date;not null" json:"request_date"`
	BorrowDate         time.Time  `gorm:"column:borrow_date;not null" json:"borrow_date"`
	ExpectedReturnDate time.Time  `gorm:"column:expected_return_date;not null" json:"expected_return_date"`
	ActualReturnDate   *time.Time `gorm:"column:actual_return_date" json:"actual_return_date,omitempty"`
	IsLateReturn       bool       `gorm:"column:is_late_return;not null;default:false" json:"is_late_return"`
	StaffID            *uint64    `gorm:"column:staff_id" json:"staff_id,omitempty"`
	StaffRemarks       *string    `gorm:"column:staff_remarks;type:text" json:"staff_remarks,omitempty"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Form) TableName() string { return "borrow_forms" }

// Item is one unit of demand within a form. UnitID stays nil until approval
// binds a concrete unit.
type Item struct {
	ID         uint64     `gorm:"primaryKey;column:id" json:"id"`
	FormID     uint64     `gorm:"column:form_id;not null;index" json:"form_id"`
	TypeID     uint64     `gorm:"column:type_id;not null;index" json:"type_id"`
	UnitID     *uint64    `gorm:"column:unit_id;index" json:"unit_id,omitempty"`
	ItemStatus ItemStatus `gorm:"column:item_status;size:32;not null;default:'pending'" json:"item_status"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "borrow_items" }

// ItemDetail is an item joined with its type and bound unit for display.
type ItemDetail struct {
	ItemID        uint64     `json:"item_id"`
	TypeID        uint64     `json:"type_id"`
	TypeName      string     `json:"type_name"`
	UnitID        *uint64    `json:"unit_id,omitempty"`
	UnitCondition *string    `json:"unit_condition,omitempty"`
	UnitStatus    *string    `json:"unit_status,omitempty"`
	ItemStatus    ItemStatus `json:"item_status"`
}

// TypeQuantity is the per-type line count of a form.
type TypeQuantity struct {
	FormID   uint64 `json:"-"`
	TypeID   uint64 `json:"type_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// FormFilter narrows form listings; zero values mean no constraint.
type FormFilter struct {
	BorrowerID  uint64
	Statuses    []Status
	DueBefore   *time.Time
	NewestFirst bool
}
