package models

import (
	"time"
)

// CartItem persists a user's pending selection before checkout. Items are
// keyed by (user, product) so re-adding a product bumps quantity instead of
// duplicating rows.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uq_cart_items_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:uq_cart_items_user_product"`
	VendorID  int64     `gorm:"column:vendor_id;not null;index"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
