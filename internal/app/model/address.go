package model

import (
	"time"

	"gorm.io/gorm"
)

// Address is a saved shipping address. At most one address per user is the
// default; AddressService.SetDefault enforces this inside a transaction.
type Address struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Name          string         `gorm:"not null" json:"name"`
	Phone         string         `gorm:"not null" json:"phone"`
	StreetAddress string         `gorm:"not null" json:"street_address"`
	Apartment     string         `json:"apartment"`
	City          string         `gorm:"not null" json:"city"`
	State         string         `gorm:"not null" json:"state"`
	PostalCode    string         `gorm:"not null" json:"postal_code"`
	Country       string         `gorm:"not null;default:'India'" json:"country"`
	IsDefault     bool           `gorm:"default:false" json:"is_default"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}
