package models

import (
	"time"
)

// Product is a sellable menu item owned by a vendor.
type Product struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	VendorID    int64     `gorm:"column:vendor_id;not null;index"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`
	PricePaise  int64     `gorm:"column:price_paise;not null"`
	ImageURL    *string   `gorm:"column:image_url;type:text"`
	IsAvailable bool      `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
