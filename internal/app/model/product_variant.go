package model

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant is a purchasable size/color combination of a product.
// Price overrides the product's base price when set above zero.
type ProductVariant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index;uniqueIndex:idx_variant_identity" json:"product_id"`
	Size      string         `gorm:"not null;uniqueIndex:idx_variant_identity" json:"size"`
	Color     string         `gorm:"not null;uniqueIndex:idx_variant_identity" json:"color"`
	Price     float64        `json:"price"`
	Stock     int            `gorm:"default:0" json:"stock"`
	Image     string         `json:"image"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}
