package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order lifecycle operations beyond checkout and payment.
type Service interface {
	VendorUpdateStatus(ctx context.Context, input VendorStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error)
	ListForUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error)
	ListForVendor(ctx context.Context, vendorID int64, statuses []enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error)
}

// VendorStatusInput captures a vendor-driven fulfillment transition.
type VendorStatusInput struct {
	OrderID     int64
	VendorID    int64
	ActorUserID int64
	Target      enums.OrderStatus
	Note        *string
}

// CancelInput captures a cancellation request from any allowed actor.
type CancelInput struct {
	OrderID     int64
	ActorUserID int64
	ActorRole   enums.Role
	VendorID    int64
	Reason      string
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    StockRestorer
	refunds  RefundIssuer
	notifier Notifier
	logg     *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock StockRestorer, refunds RefundIssuer, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock restorer required")
	}
	if refunds == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "refund issuer required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		stock:    stock,
		refunds:  refunds,
		notifier: notifier,
		logg:     logg,
	}, nil
}

func (s *service) VendorUpdateStatus(ctx context.Context, input VendorStatusInput) (*models.Order, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.VendorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	if !VendorDriven(input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is not vendor-driven")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.VendorID != input.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]string{"from": order.Status.String(), "to": input.Target.String()})
		}

		order.Status = input.Target
		now := time.Now().UTC()
		if input.Target == enums.OrderStatusDelivered {
			order.DeliveredAt = &now
			// Cash on delivery settles when the rider hands the order over.
			if order.PaymentMode == enums.PaymentModeCOD && order.PaymentStatus == enums.PaymentStatusCOD {
				order.PaymentStatus = enums.PaymentStatusPaid
			}
		}

		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		entry := &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    input.Target,
			ActorRole: enums.RoleVendor,
			ActorID:   &input.ActorUserID,
			Note:      input.Note,
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, updated, "")
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var (
		updated *models.Order
		wasPaid bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := checkCancelActor(order, input); err != nil {
			return err
		}
		if !Cancellable(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]string{"status": order.Status.String()})
		}

		items, err := repo.FindItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		for _, item := range items {
			if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		wasPaid = order.PaymentStatus == enums.PaymentStatusPaid
		now := time.Now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if input.Reason != "" {
			order.CancellationReason = &input.Reason
		}

		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		entry := &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusCancelled,
			ActorRole: input.ActorRole,
			ActorID:   &input.ActorUserID,
			Note:      order.CancellationReason,
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Refund runs after commit so a gateway failure never rolls back the
	// cancellation. Failures are recorded and retried by support.
	if wasPaid {
		if err := s.refunds.RefundOrder(ctx, updated.ID, input.Reason); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, updated.ID), "refund after cancel failed", err)
		}
	}

	if s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, updated, input.Reason)
	}
	return updated, nil
}

func checkCancelActor(order *models.Order, input CancelInput) error {
	switch input.ActorRole {
	case enums.RoleCustomer:
		if order.UserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
	case enums.RoleVendor:
		if order.VendorID != input.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
	case enums.RoleAdmin:
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot cancel orders")
	}
	return nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error) {
	if userID <= 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, total, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID int64, statuses []enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error) {
	if vendorID <= 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	orders, total, err := s.repo.ListByVendor(ctx, vendorID, statuses, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return orders, total, nil
}
