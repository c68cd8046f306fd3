package cron

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/metrics"
)

const (
	jobName    = "pending_payment_sweep"
	sweepBatch = 100
)

// StaleOrderSource lists orders stuck waiting for an online payment.
type StaleOrderSource interface {
	FindStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]models.Order, error)
}

// Locker takes a short distributed lock so only one instance sweeps at a
// time. The redis client implements it through SetNX.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Sweeper cancels online orders whose payment never arrived, releasing
// their reserved stock. It runs on a fixed interval.
type Sweeper struct {
	logg     *logger.Logger
	tx       txRunner
	source   StaleOrderSource
	orders   orders.Repository
	stock    orders.StockRestorer
	locker   Locker
	metrics  *metrics.CronJobMetrics
	ttl      time.Duration
	interval time.Duration
}

// SweeperParams bundles the sweeper dependencies. Locker is optional; nil
// means single-instance deployment.
type SweeperParams struct {
	Logger  *logger.Logger
	Tx      txRunner
	Source  StaleOrderSource
	Orders  orders.Repository
	Stock   orders.StockRestorer
	Locker  Locker
	Metrics *metrics.CronJobMetrics
	Config  config.Config
}

// NewSweeper builds the pending payment sweeper.
func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stale order source required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock restorer required")
	}
	return &Sweeper{
		logg:     params.Logger,
		tx:       params.Tx,
		source:   params.Source,
		orders:   params.Orders,
		stock:    params.Stock,
		locker:   params.Locker,
		metrics:  params.Metrics,
		ttl:      params.Config.Delivery.PendingPaymentTTL,
		interval: params.Config.Cron.PendingPaymentSweepInterval,
	}, nil
}

// Run executes the sweep loop until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.Sweep(ctx); err != nil {
		s.logg.Error(ctx, "pending payment sweep failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "pending payment sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logg.Error(ctx, "pending payment sweep failed", err)
			}
		}
	}
}

// Sweep cancels every order stuck past the payment TTL. Each order is its
// own transaction so one bad row never blocks the batch.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if s.locker != nil {
		key := s.locker.IdempotencyKey("cron", jobName)
		acquired, err := s.locker.SetNX(ctx, key, time.Now().Unix(), s.interval/2)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sweep lock")
		}
		if !acquired {
			return nil
		}
	}

	started := time.Now()
	cutoff := time.Now().UTC().Add(-s.ttl)

	var stale []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		stale, err = s.source.FindStalePending(ctx, tx, cutoff, sweepBatch)
		return err
	})
	if err != nil {
		s.metrics.IncFailure(jobName)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale pending orders")
	}

	swept := 0
	for _, order := range stale {
		if err := s.cancelStale(ctx, order.ID); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "cancel stale order failed", err)
			continue
		}
		swept++
	}

	s.metrics.ObserveDuration(jobName, time.Since(started))
	s.metrics.IncSuccess(jobName)
	s.metrics.AddSwept(jobName, swept)
	if swept > 0 {
		s.logg.Info(ctx, "pending payment sweep cancelled stale orders")
	}
	return nil
}

func (s *Sweeper) cancelStale(ctx context.Context, orderID int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}

		// Re-check under lock: a payment may have landed since the scan.
		if order.Status != enums.OrderStatusPending || order.PaymentStatus == enums.PaymentStatusPaid {
			return nil
		}

		items, err := ordersRepo.FindItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		for _, item := range items {
			if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		reason := "payment not completed in time"
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancellationReason = &reason
		if order.PaymentStatus == enums.PaymentStatusPending {
			order.PaymentStatus = enums.PaymentStatusFailed
		}
		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		return ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			ActorRole: enums.RoleSystem,
			Note:      &reason,
		})
	})
}

// StaleOrderRepo is the gorm-backed StaleOrderSource.
type StaleOrderRepo struct {
	db *gorm.DB
}

// NewStaleOrderRepo builds a stale order source bound to the provided DB.
func NewStaleOrderRepo(db *gorm.DB) *StaleOrderRepo {
	return &StaleOrderRepo{db: db}
}

// FindStalePending lists online orders still awaiting payment past the
// cutoff, oldest first.
func (r *StaleOrderRepo) FindStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]models.Order, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var stale []models.Order
	err := db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("payment_status IN ?", []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusFailed}).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	return stale, nil
}
