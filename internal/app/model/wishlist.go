package model

import (
	"time"
)

// WishlistItem marks a product as saved by a user. At most one row exists
// per (user, product) pair; re-adding is a no-op.
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_wishlist_identity" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_identity" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
