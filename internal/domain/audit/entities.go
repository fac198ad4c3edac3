package audit

import (
	"context"
	"errors"
	"time"
)

var ErrMissingActor = errors.New("audit entry requires an actor")

type Action string

const (
	ActionSubmitted           Action = "submitted"
	ActionApproved            Action = "approved"
	ActionRejected            Action = "rejected"
	ActionInitiatedReturn     Action = "initiated_return"
	ActionConfirmedReturn     Action = "confirmed_return"
	ActionConfirmedLateReturn Action = "confirmed_late_return"
	ActionMarkedOverdue       Action = "marked_overdue"
	ActionReturnedWithIssue   Action = "returned_with_issue"
	ActionUnitRestored        Action = "unit_restored"
	ActionTypeCreated         Action = "type_created"
	ActionStockUpdated        Action = "stock_updated"
	ActionTypeRemoved         Action = "type_removed"
)

// Entry is append-only. FormID is nil for type- or unit-level actions.
type Entry struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	FormID    *uint64   `gorm:"column:form_id;index" json:"form_id,omitempty"`
	ActorID   uint64    `gorm:"column:user_id;not null;index" json:"actor_id"`
	Action    Action    `gorm:"column:action;size:40;not null" json:"action"`
	Remarks   *string   `gorm:"column:message;type:text" json:"remarks,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "audit_logs" }

func NewEntry(formID *uint64, actorID uint64, action Action, remarks string) (*Entry, error) {
	if actorID == 0 {
		return nil, ErrMissingActor
	}
	e := &Entry{FormID: formID, ActorID: actorID, Action: action}
	if remarks != "" {
		e.Remarks = &remarks
	}
	return e, nil
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByForm(ctx context.Context, formID uint64) ([]Entry, error)
}
