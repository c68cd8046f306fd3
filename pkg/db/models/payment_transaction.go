package models

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// PaymentTransaction is the gateway-side record for an order attempt. At most
// one success row may exist per order; the partial unique index in the schema
// enforces it even when verify and webhook race.
type PaymentTransaction struct {
	ID               int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID          int64                   `gorm:"column:order_id;not null;index"`
	GatewayOrderID   string                  `gorm:"column:gateway_order_id;type:text;not null;index"`
	GatewayPaymentID *string                 `gorm:"column:gateway_payment_id;type:text"`
	Status           enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AmountPaise      int64                   `gorm:"column:amount_paise;not null"`
	Method           *string                 `gorm:"column:method;type:text"`
	FailureReason    *string                 `gorm:"column:failure_reason;type:text"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
