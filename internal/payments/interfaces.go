package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
)

// Repository covers payment transaction and refund persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	FindByOrderAndStatus(ctx context.Context, orderID int64, status enums.TransactionStatus) (*models.PaymentTransaction, error)
	FindPendingByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentTransaction, error)
	CreateRefund(ctx context.Context, refund *models.RefundHistory) error
}

// Gateway is the slice of the payment provider the service needs. The
// production implementation is pkg/razorpay.Client.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]interface{}) (*razorpay.OrderIntent, error)
	RefundPayment(ctx context.Context, paymentID string, amountPaise int64, notes map[string]interface{}) (string, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error
	VerifyWebhookSignature(body []byte, signature string) error
}

// Notifier announces payment outcomes. Implementations must not fail the
// calling operation.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	PaymentFailed(ctx context.Context, order *models.Order, reason string)
}
