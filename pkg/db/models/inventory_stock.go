package models

import (
	"time"
)

// InventoryStock tracks remaining quantity for products that limit supply.
// Products without a row are treated as unlimited.
type InventoryStock struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
