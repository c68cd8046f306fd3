package models

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// OrderStatusHistory records each fulfillment transition with the actor that
// caused it.
type OrderStatusHistory struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64             `gorm:"column:order_id;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ActorRole enums.Role        `gorm:"column:actor_role;type:text;not null"`
	ActorID   *int64            `gorm:"column:actor_id"`
	Note      *string           `gorm:"column:note;type:text"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
