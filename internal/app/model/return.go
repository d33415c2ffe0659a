package model

import (
	"time"

	"gorm.io/gorm"
)

type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
	ReturnStatusRefunded  ReturnStatus = "refunded"
)

// CanTransitionTo reports whether a return request may move from s to next.
// Rejected is terminal; everything else walks forward one stage at a time,
// with rejection possible until the return is completed.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return next == ReturnStatusApproved || next == ReturnStatusRejected
	case ReturnStatusApproved:
		return next == ReturnStatusCompleted || next == ReturnStatusRejected
	case ReturnStatusCompleted:
		return next == ReturnStatusRefunded
	default:
		return false
	}
}

// IsOpen reports whether the request still blocks a new return on the
// same target. Only rejection frees the target for another attempt.
func (s ReturnStatus) IsOpen() bool {
	return s != ReturnStatusRejected
}

func ValidReturnStatus(s ReturnStatus) bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected,
		ReturnStatusCompleted, ReturnStatusRefunded:
		return true
	}
	return false
}

// ReturnRequest tracks the return of a delivered order, either a single
// line (OrderItemID set) or the whole order. At most one open return may
// exist per (order, line) target. When a request reaches refunded, the
// parent order's status and payment status flip to refunded in the same
// transaction.
type ReturnRequest struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OrderID      uint           `gorm:"not null;index" json:"order_id"`
	OrderItemID  *uint          `gorm:"index" json:"order_item_id,omitempty"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Reason       string         `gorm:"type:text;not null" json:"reason"`
	Comment      string         `gorm:"type:text" json:"comment"`
	RefundAmount float64        `gorm:"not null;default:0" json:"refund_amount"`
	AdminNotes   string         `gorm:"type:text" json:"admin_notes,omitempty"`
	Status       ReturnStatus   `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Order     *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	OrderItem *OrderItem `gorm:"foreignKey:OrderItemID" json:"order_item,omitempty"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ReturnRequest) TableName() string {
	return "return_requests"
}
