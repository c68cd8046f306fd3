package models

import (
	"time"
)

// OrderItem is an immutable snapshot of a product line at checkout time.
// Name and unit price are copied so later catalogue edits never rewrite an
// order's history.
type OrderItem struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int64     `gorm:"column:order_id;not null;index"`
	ProductID      int64     `gorm:"column:product_id;not null"`
	ProductName    string    `gorm:"column:product_name;type:text;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	SubtotalPaise  int64     `gorm:"column:subtotal_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
