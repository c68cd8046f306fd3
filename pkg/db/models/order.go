package models

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// Order is the parent record of a checkout. Monetary columns are integer
// paise. Status and PaymentStatus evolve independently but only through the
// transitions the services allow.
type Order struct {
	ID                 int64               `gorm:"column:id;primaryKey;autoIncrement"`
	UserID             int64               `gorm:"column:user_id;not null;index"`
	VendorID           int64               `gorm:"column:vendor_id;not null;index"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PaymentMode        enums.PaymentMode   `gorm:"column:payment_mode;type:text;not null"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'PENDING'"`
	SubtotalPaise      int64               `gorm:"column:subtotal_paise;not null"`
	DeliveryFeePaise   int64               `gorm:"column:delivery_fee_paise;not null;default:0"`
	TotalPaise         int64               `gorm:"column:total_paise;not null"`
	DistanceKm         float64             `gorm:"column:distance_km;not null;default:0"`
	DeliveryAddress    string              `gorm:"column:delivery_address;type:text;not null"`
	TransactionID      *string             `gorm:"column:transaction_id;type:text"`
	GatewayOrderID     *string             `gorm:"column:gateway_order_id;type:text;index"`
	PaymentScreenshot  *string             `gorm:"column:payment_screenshot;type:text"`
	CancellationReason *string             `gorm:"column:cancellation_reason;type:text"`
	PlacedAt           *time.Time          `gorm:"column:placed_at"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items   []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}
