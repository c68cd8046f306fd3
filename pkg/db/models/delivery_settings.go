package models

import (
	"time"
)

// DeliverySettings is a single-row table holding the fee formula inputs.
// When no row exists the service falls back to configured defaults.
type DeliverySettings struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BaseChargePaise  int64     `gorm:"column:base_charge_paise;not null"`
	FreeDistanceKm   float64   `gorm:"column:free_distance_km;not null"`
	ExtraPerKmPaise  int64     `gorm:"column:extra_per_km_paise;not null"`
	UpdatedByAdminID *int64    `gorm:"column:updated_by_admin_id"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
