package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

// Repository covers order persistence. Find*ForUpdate variants take a row
// lock and must run inside a transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Order, error)
	FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	FindItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error)
	ListByVendor(ctx context.Context, vendorID int64, statuses []enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error)
}

// StockRestorer returns reserved stock when an order is cancelled.
type StockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
}

// RefundIssuer starts a refund for a paid order after cancellation commits.
type RefundIssuer interface {
	RefundOrder(ctx context.Context, orderID int64, reason string) error
}

// Notifier fans out order lifecycle notifications. Implementations must not
// fail the calling operation.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order, note string)
}
