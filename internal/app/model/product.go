package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"not null;index" json:"category"`
	Brand       string         `gorm:"index" json:"brand"`
	BasePrice   float64        `gorm:"not null" json:"base_price"`
	Discount    float64        `gorm:"default:0" json:"discount"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	IsFeatured  bool           `gorm:"default:false" json:"is_featured"`
	IsNew       bool           `gorm:"default:false" json:"is_new"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// EffectivePrice applies the percentage discount to the base price.
func (p *Product) EffectivePrice() float64 {
	if p.Discount <= 0 {
		return p.BasePrice
	}
	return p.BasePrice * (1 - p.Discount/100)
}
