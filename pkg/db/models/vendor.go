package models

import (
	"time"

	"github.com/lib/pq"
)

// Vendor is a restaurant or shop selling through the marketplace.
type Vendor struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerUserID int64          `gorm:"column:owner_user_id;not null;index"`
	Name        string         `gorm:"column:name;type:text;not null"`
	Slug        string         `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Address     string         `gorm:"column:address;type:text;not null"`
	CuisineTags pq.StringArray `gorm:"column:cuisine_tags;type:text[]"`
	IsOpen      bool           `gorm:"column:is_open;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
