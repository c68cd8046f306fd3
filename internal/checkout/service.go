package checkout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/internal/cart"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/metrics"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
)

const maxDistanceKm = 30

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockReserver decrements tracked stock inside the checkout transaction.
type StockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
}

// IntentCreator registers an order with the payment gateway once checkout
// has committed.
type IntentCreator interface {
	CreateIntent(ctx context.Context, orderID int64) (*razorpay.OrderIntent, error)
}

// Notifier announces newly placed orders. Implementations must not fail the
// checkout.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
}

// Input captures a checkout request.
type Input struct {
	UserID          int64
	PaymentMode     enums.PaymentMode
	DeliveryAddress string
	DistanceKm      float64
}

// Result is the order produced by checkout plus, for online payments, the
// gateway intent the client needs.
type Result struct {
	Order  *models.Order
	Intent *razorpay.OrderIntent
}

// Service turns a cart into an order.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	cartRepo      cart.Repository
	ordersRepo    orders.Repository
	stock         StockReserver
	fees          *FeeCalculator
	tx            txRunner
	intents       IntentCreator
	notifier      Notifier
	metrics       *metrics.PaymentMetrics
	logg          *logger.Logger
	onlineEnabled bool
}

// Params bundles the checkout service dependencies.
type Params struct {
	CartRepo      cart.Repository
	OrdersRepo    orders.Repository
	Stock         StockReserver
	Fees          *FeeCalculator
	Tx            txRunner
	Intents       IntentCreator
	Notifier      Notifier
	Metrics       *metrics.PaymentMetrics
	Logger        *logger.Logger
	OnlineEnabled bool
}

// NewService builds a checkout service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock reserver required")
	}
	if params.Fees == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee calculator required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		cartRepo:      params.CartRepo,
		ordersRepo:    params.OrdersRepo,
		stock:         params.Stock,
		fees:          params.Fees,
		tx:            params.Tx,
		intents:       params.Intents,
		notifier:      params.Notifier,
		metrics:       params.Metrics,
		logg:          params.Logger,
		onlineEnabled: params.OnlineEnabled,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.PaymentMode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment mode")
	}
	if input.PaymentMode == enums.PaymentModeOnline && !s.onlineEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "online payments are disabled")
	}
	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if input.DistanceKm < 0 || input.DistanceKm > maxDistanceKm {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distance out of delivery range")
	}

	started := time.Now()
	var created *models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		items, err := cartRepo.FindItems(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		var (
			vendorID   int64
			subtotal   int64
			orderItems []models.OrderItem
		)
		for _, item := range items {
			if item.Product == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "cart item missing product")
			}
			if !item.Product.IsAvailable {
				return pkgerrors.New(pkgerrors.CodeConflict, "product is unavailable").
					WithDetails(map[string]int64{"product_id": item.ProductID})
			}
			if err := s.stock.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			vendorID = item.VendorID
			lineSubtotal := item.Product.PricePaise * int64(item.Quantity)
			subtotal += lineSubtotal
			orderItems = append(orderItems, models.OrderItem{
				ProductID:      item.ProductID,
				ProductName:    item.Product.Name,
				UnitPricePaise: item.Product.PricePaise,
				Quantity:       item.Quantity,
				SubtotalPaise:  lineSubtotal,
			})
		}

		fee, err := s.fees.Quote(ctx, input.DistanceKm)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:           input.UserID,
			VendorID:         vendorID,
			PaymentMode:      input.PaymentMode,
			SubtotalPaise:    subtotal,
			DeliveryFeePaise: fee,
			TotalPaise:       subtotal + fee,
			DistanceKm:       input.DistanceKm,
			DeliveryAddress:  input.DeliveryAddress,
		}
		applyInitialStates(order)

		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			ActorRole: enums.RoleCustomer,
			ActorID:   &input.UserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}
		if err := cartRepo.Clear(ctx, input.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(created.PaymentMode.String())
	s.metrics.ObserveCheckoutDuration(time.Since(started))

	result := &Result{Order: created}

	// The gateway call happens after commit so a slow or failing gateway
	// never holds the checkout transaction open. The order stays PENDING
	// and the client can retry intent creation.
	if created.PaymentMode == enums.PaymentModeOnline {
		if s.intents == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment intents not configured")
		}
		intent, err := s.intents.CreateIntent(ctx, created.ID)
		if err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, created.ID), "gateway intent after checkout failed", err)
			return nil, err
		}
		result.Intent = intent
	}

	if s.notifier != nil && created.Status == enums.OrderStatusPlaced {
		s.notifier.OrderPlaced(ctx, created)
	}
	return result, nil
}

// applyInitialStates sets the lifecycle fields a new order starts with.
// Online orders stay PENDING until the gateway confirms; cash and manual
// orders are visible to the vendor immediately.
func applyInitialStates(order *models.Order) {
	now := time.Now().UTC()
	switch order.PaymentMode {
	case enums.PaymentModeOnline:
		order.Status = enums.OrderStatusPending
		order.PaymentStatus = enums.PaymentStatusPending
	case enums.PaymentModeCOD:
		order.Status = enums.OrderStatusPlaced
		order.PaymentStatus = enums.PaymentStatusCOD
		order.PlacedAt = &now
	case enums.PaymentModeManual:
		order.Status = enums.OrderStatusPlaced
		order.PaymentStatus = enums.PaymentStatusPendingQR
		order.PlacedAt = &now
	}
}
