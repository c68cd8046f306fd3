package models

import (
	"time"
)

// RefundHistory records refund attempts issued against a paid order,
// including attempts the gateway rejected.
type RefundHistory struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID         int64     `gorm:"column:order_id;not null;index"`
	GatewayRefundID *string   `gorm:"column:gateway_refund_id;type:text"`
	AmountPaise     int64     `gorm:"column:amount_paise;not null"`
	Succeeded       bool      `gorm:"column:succeeded;not null"`
	FailureReason   *string   `gorm:"column:failure_reason;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
