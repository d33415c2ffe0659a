package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodPrepaid PaymentMethod = "prepaid"
	PaymentMethodCOD     PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// fulfilment rank of each forward status; terminal states have no rank
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// CanTransitionTo reports whether an order may move from s to next.
// Forward moves may skip stages. Cancellation is allowed until the order
// is delivered. Refunded is reachable only through the return flow, never
// through a direct status update.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return false
	}
	if next == OrderStatusCancelled {
		rank, ok := orderStatusRank[s]
		return ok && rank < orderStatusRank[OrderStatusDelivered]
	}
	from, okFrom := orderStatusRank[s]
	to, okTo := orderStatusRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to > from
}

// CanTransitionTo reports whether a payment may move from s to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderNumber   string         `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	AddressID     uint           `gorm:"not null" json:"address_id"`
	Subtotal      float64        `gorm:"not null" json:"subtotal"`
	ShippingFee   float64        `gorm:"not null" json:"shipping_fee"`
	Total         float64        `gorm:"not null" json:"total"`
	PaymentMethod PaymentMethod  `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus PaymentStatus  `gorm:"type:varchar(20);default:'pending';not null" json:"payment_status"`
	Status        OrderStatus    `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	ItemsCount    int            `gorm:"not null" json:"items_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User    *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Address *Address    `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the product at purchase time so later catalog edits
// do not rewrite order history.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null" json:"product_id"`
	ProductName string    `gorm:"not null" json:"product_name"`
	Image       string    `json:"image"`
	Size        string    `json:"size"`
	Color       string    `json:"color"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unit_price"`
	LineTotal   float64   `gorm:"not null" json:"line_total"`
	CreatedAt   time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
