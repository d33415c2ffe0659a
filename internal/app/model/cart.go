package model

import (
	"time"
)

// CartItem is one line of a user's cart. A line is identified by the
// (user, product, size, color) tuple; adding the same tuple again merges
// into the existing line instead of creating a new one.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_cart_identity" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_identity" json:"product_id"`
	Size      string    `gorm:"not null;uniqueIndex:idx_cart_identity" json:"size"`
	Color     string    `gorm:"not null;uniqueIndex:idx_cart_identity" json:"color"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (ci *CartItem) LineTotal() float64 {
	return ci.UnitPrice * float64(ci.Quantity)
}
