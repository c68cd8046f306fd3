package models

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// ActivityLog is an append-only audit trail for admin and system actions,
// mainly manual payment reviews.
type ActivityLog struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ActorID   *int64     `gorm:"column:actor_id"`
	ActorRole enums.Role `gorm:"column:actor_role;type:text;not null"`
	Action    string     `gorm:"column:action;type:text;not null"`
	OrderID   *int64     `gorm:"column:order_id;index"`
	Detail    *string    `gorm:"column:detail;type:text"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
