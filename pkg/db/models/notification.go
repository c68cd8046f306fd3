package models

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// Notification stores in-app notification payloads for users and vendors.
type Notification struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	RecipientType enums.RecipientType `gorm:"column:recipient_type;type:text;not null"`
	RecipientID   int64               `gorm:"column:recipient_id;not null;index"`
	OrderID       *int64              `gorm:"column:order_id;index"`
	Title         string              `gorm:"column:title;type:text;not null"`
	Message       string              `gorm:"column:message;type:text;not null"`
	ReadAt        *time.Time          `gorm:"column:read_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
