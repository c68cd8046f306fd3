package models

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// PaymentScreenshot is a customer-submitted proof image for manual payment.
// Several submissions may exist per order; approving one auto-rejects the
// rest.
type PaymentScreenshot struct {
	ID             int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int64                  `gorm:"column:order_id;not null;index"`
	UserID         int64                  `gorm:"column:user_id;not null"`
	ImageURL       string                 `gorm:"column:image_url;type:text;not null"`
	Status         enums.ScreenshotStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ReviewedBy     *int64                 `gorm:"column:reviewed_by"`
	ReviewNote     *string                `gorm:"column:review_note;type:text"`
	TransactionRef *string                `gorm:"column:transaction_ref;type:text"`
	ReviewedAt     *time.Time             `gorm:"column:reviewed_at"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
