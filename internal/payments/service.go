package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/metrics"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
)

// successConstraint is the partial unique index that admits at most one
// success transaction per order. A violation means a concurrent path
// already captured the payment.
const successConstraint = "uq_payment_transactions_order_success"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// VerifyInput is the client-side redirect payload for an online payment.
// OrderID, when set, pins the capture to the order named in the request
// path so a mismatch is caught before anything settles.
type VerifyInput struct {
	UserID           int64
	OrderID          int64
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// WebhookResult reports what a webhook delivery did.
type WebhookResult struct {
	Event     string
	Duplicate bool
	Ignored   bool
}

// Service handles the online payment lifecycle: gateway intents, capture
// confirmation from either the client redirect or the webhook, and refunds.
type Service interface {
	CreateIntentForUser(ctx context.Context, userID, orderID int64) (*razorpay.OrderIntent, error)
	CreateIntent(ctx context.Context, orderID int64) (*razorpay.OrderIntent, error)
	VerifyClientPayment(ctx context.Context, input VerifyInput) (*models.Order, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
	RefundOrder(ctx context.Context, orderID int64, reason string) error
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	gateway    Gateway
	tx         txRunner
	notifier   Notifier
	metrics    *metrics.PaymentMetrics
	logg       *logger.Logger
}

// Params bundles the payments service dependencies.
type Params struct {
	Repo       Repository
	OrdersRepo orders.Repository
	Gateway    Gateway
	Tx         txRunner
	Notifier   Notifier
	Metrics    *metrics.PaymentMetrics
	Logger     *logger.Logger
}

// NewService builds a payments service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		repo:       params.Repo,
		ordersRepo: params.OrdersRepo,
		gateway:    params.Gateway,
		tx:         params.Tx,
		notifier:   params.Notifier,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// CreateIntentForUser checks ownership before creating a gateway intent, for
// the client-facing retry endpoint.
func (s *service) CreateIntentForUser(ctx context.Context, userID, orderID int64) (*razorpay.OrderIntent, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return s.CreateIntent(ctx, orderID)
}

// CreateIntent registers the order with the gateway, or returns the intent
// already registered. Calling it twice for the same order is safe.
func (s *service) CreateIntent(ctx context.Context, orderID int64) (*razorpay.OrderIntent, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMode != enums.PaymentModeOnline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not an online payment")
	}
	// A failed attempt is retryable; the same gateway order accepts
	// another payment, so the intent is simply handed back out.
	if order.PaymentStatus != enums.PaymentStatusPending && order.PaymentStatus != enums.PaymentStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is no longer pending")
	}
	if order.GatewayOrderID != nil {
		return s.intentFor(order, *order.GatewayOrderID), nil
	}

	// The gateway call runs before we take any row lock so a slow provider
	// never blocks other writers on this order.
	intent, err := s.gateway.CreateOrder(ctx, order.TotalPaise, fmt.Sprintf("order_%d", order.ID), map[string]interface{}{
		"order_id": order.ID,
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		locked, err := ordersRepo.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if locked.GatewayOrderID != nil {
			// A concurrent request won the race; keep its intent and let
			// the one we just created expire unpaid at the gateway.
			intent = s.intentFor(locked, *locked.GatewayOrderID)
			return nil
		}
		locked.GatewayOrderID = &intent.GatewayOrderID
		if err := ordersRepo.Save(ctx, locked); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save gateway order id")
		}
		return s.repo.WithTx(tx).CreateTransaction(ctx, &models.PaymentTransaction{
			OrderID:        locked.ID,
			GatewayOrderID: intent.GatewayOrderID,
			Status:         enums.TransactionStatusPending,
			AmountPaise:    locked.TotalPaise,
		})
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// VerifyClientPayment confirms a capture reported by the client redirect.
// The signature proves the values came from the gateway; the webhook may
// arrive before or after and both paths converge on the same success row.
func (s *service) VerifyClientPayment(ctx context.Context, input VerifyInput) (*models.Order, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id, payment id and signature are required")
	}
	if err := s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature); err != nil {
		s.markVerificationFailed(ctx, input.GatewayOrderID)
		return nil, err
	}

	var confirmed *models.Order
	var placed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.ordersRepo.WithTx(tx).FindByGatewayOrderIDForUpdate(ctx, input.GatewayOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if input.UserID > 0 && order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
		if input.OrderID > 0 && order.ID != input.OrderID {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment does not belong to this order")
		}
		var err2 error
		placed, err2 = s.capture(ctx, tx, order, input.GatewayPaymentID, nil)
		if err2 != nil {
			return err2
		}
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if placed {
		s.metrics.IncPaymentCaptured()
		if s.notifier != nil {
			s.notifier.OrderPlaced(ctx, confirmed)
		}
	}
	return confirmed, nil
}

// HandleWebhook processes a signed gateway event. Deliveries are at least
// once, so every branch tolerates replays.
func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if err := s.gateway.VerifyWebhookSignature(body, signature); err != nil {
		return nil, err
	}
	event, err := parseWebhookEvent(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}

	switch event.Event {
	case EventPaymentCaptured:
		return s.handleCaptured(ctx, event)
	case EventPaymentFailed:
		return s.handleFailed(ctx, event)
	default:
		return &WebhookResult{Event: event.Event, Ignored: true}, nil
	}
}

func (s *service) handleCaptured(ctx context.Context, event *WebhookEvent) (*WebhookResult, error) {
	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" || payment.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payment entity incomplete")
	}

	var confirmed *models.Order
	var placed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.ordersRepo.WithTx(tx).FindByGatewayOrderIDForUpdate(ctx, payment.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		var method *string
		if payment.Method != "" {
			method = &payment.Method
		}
		var err2 error
		placed, err2 = s.capture(ctx, tx, order, payment.ID, method)
		if err2 != nil {
			return err2
		}
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !placed {
		s.metrics.IncWebhookDuplicate()
		return &WebhookResult{Event: event.Event, Duplicate: true}, nil
	}
	s.metrics.IncPaymentCaptured()
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, confirmed)
	}
	return &WebhookResult{Event: event.Event}, nil
}

func (s *service) handleFailed(ctx context.Context, event *WebhookEvent) (*WebhookResult, error) {
	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payment entity incomplete")
	}

	var failed *models.Order
	var duplicate bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.ordersRepo.WithTx(tx).FindByGatewayOrderIDForUpdate(ctx, payment.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}

		// A failure event never downgrades an order the capture already
		// settled. Razorpay can emit both when a retry succeeds.
		if order.PaymentStatus == enums.PaymentStatusPaid || order.Status == enums.OrderStatusDelivered {
			duplicate = true
			return nil
		}
		if order.PaymentStatus == enums.PaymentStatusFailed {
			duplicate = true
			return nil
		}

		order.PaymentStatus = enums.PaymentStatusFailed
		ordersRepo := s.ordersRepo.WithTx(tx)
		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		repo := s.repo.WithTx(tx)
		txn, err := repo.FindPendingByGatewayOrderID(ctx, payment.OrderID)
		if err == nil {
			txn.Status = enums.TransactionStatusFailed
			if payment.ID != "" {
				txn.GatewayPaymentID = &payment.ID
			}
			if payment.ErrorDescription != "" {
				txn.FailureReason = &payment.ErrorDescription
			}
			if err := repo.SaveTransaction(ctx, txn); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save transaction")
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}

		if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			ActorRole: enums.RoleSystem,
			Note:      notePtr("payment failed: " + payment.ErrorDescription),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}
		failed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		s.metrics.IncWebhookDuplicate()
		return &WebhookResult{Event: event.Event, Duplicate: true}, nil
	}
	s.metrics.IncPaymentFailed()
	if s.notifier != nil {
		s.notifier.PaymentFailed(ctx, failed, payment.ErrorDescription)
	}
	return &WebhookResult{Event: event.Event}, nil
}

// capture settles a payment on a locked order. It returns true when this
// call performed the settlement and false when another path already had.
// Both the verify endpoint and the webhook funnel through here.
func (s *service) capture(ctx context.Context, tx *gorm.DB, order *models.Order, gatewayPaymentID string, method *string) (bool, error) {
	if order.PaymentMode != enums.PaymentModeOnline {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not an online payment")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return false, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	repo := s.repo.WithTx(tx)
	gatewayOrderID := ""
	if order.GatewayOrderID != nil {
		gatewayOrderID = *order.GatewayOrderID
	}

	txn, err := repo.FindPendingByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		txn = &models.PaymentTransaction{
			OrderID:        order.ID,
			GatewayOrderID: gatewayOrderID,
			AmountPaise:    order.TotalPaise,
		}
		if createErr := repo.CreateTransaction(ctx, txn); createErr != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create transaction")
		}
	}

	txn.Status = enums.TransactionStatusSuccess
	txn.GatewayPaymentID = &gatewayPaymentID
	txn.Method = method
	if err := repo.SaveTransaction(ctx, txn); err != nil {
		if db.IsUniqueViolation(err, successConstraint) {
			// The other path committed its success row between our lock
			// and this write. Treat the delivery as a replay.
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save transaction")
	}

	now := time.Now().UTC()
	order.PaymentStatus = enums.PaymentStatusPaid
	order.TransactionID = &gatewayPaymentID
	if order.Status == enums.OrderStatusPending {
		order.Status = enums.OrderStatusPlaced
		order.PlacedAt = &now
	}
	ordersRepo := s.ordersRepo.WithTx(tx)
	if err := ordersRepo.Save(ctx, order); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    order.Status,
		ActorRole: enums.RoleSystem,
		Note:      notePtr("payment captured"),
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}
	return true, nil
}

// RefundOrder refunds the captured payment for a cancelled order. It runs
// after the cancellation has committed; failures are recorded and surfaced
// but the cancellation stands.
func (s *service) RefundOrder(ctx context.Context, orderID int64, reason string) error {
	txn, err := s.repo.FindByOrderAndStatus(ctx, orderID, enums.TransactionStatusSuccess)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no captured payment on record")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.GatewayPaymentID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "captured payment has no gateway payment id")
	}

	refundID, refundErr := s.gateway.RefundPayment(ctx, *txn.GatewayPaymentID, txn.AmountPaise, map[string]interface{}{
		"order_id": orderID,
		"reason":   reason,
	})

	record := &models.RefundHistory{
		OrderID:     orderID,
		AmountPaise: txn.AmountPaise,
		Succeeded:   refundErr == nil,
	}
	if refundErr == nil {
		record.GatewayRefundID = &refundID
	} else {
		message := refundErr.Error()
		record.FailureReason = &message
	}
	if err := s.repo.CreateRefund(ctx, record); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID), "record refund attempt failed", err)
	}
	if refundErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, refundErr, "gateway refund failed")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn.Status = enums.TransactionStatusRefunded
		if err := repo.SaveTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save transaction")
		}

		ordersRepo := s.ordersRepo.WithTx(tx)
		order, err := ordersRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		order.PaymentStatus = enums.PaymentStatusRefunded
		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		return ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			ActorRole: enums.RoleSystem,
			Note:      notePtr("payment refunded"),
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncRefundIssued()
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) intentFor(order *models.Order, gatewayOrderID string) *razorpay.OrderIntent {
	return &razorpay.OrderIntent{
		GatewayOrderID: gatewayOrderID,
		AmountPaise:    order.TotalPaise,
		Currency:       "INR",
		KeyID:          s.gateway.KeyID(),
	}
}

// markVerificationFailed stamps the pending transaction failed after a bad
// client signature. Best effort: the order itself stays untouched so a
// genuine capture arriving by webhook still settles it.
func (s *service) markVerificationFailed(ctx context.Context, gatewayOrderID string) {
	txn, err := s.repo.FindPendingByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return
	}
	txn.Status = enums.TransactionStatusFailed
	txn.FailureReason = notePtr("client signature mismatch")
	if err := s.repo.SaveTransaction(ctx, txn); err != nil {
		s.logg.Error(ctx, "mark transaction failed after bad signature", err)
	}
}

func notePtr(note string) *string {
	return &note
}
