package cron

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type stubSource struct {
	stale []models.Order
}

func (s *stubSource) FindStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]models.Order, error) {
	return s.stale, nil
}

type stubOrderStore struct {
	orders  map[int64]*models.Order
	items   map[int64][]models.OrderItem
	history []models.OrderStatusHistory
}

func (s *stubOrderStore) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrderStore) CreateItems(ctx context.Context, items []models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrderStore) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderStore) FindByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrderStore) FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrderStore) Save(ctx context.Context, order *models.Order) error {
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *stubOrderStore) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubOrderStore) FindItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return s.items[orderID], nil
}

func (s *stubOrderStore) ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error) {
	panic("not implemented")
}

func (s *stubOrderStore) ListByVendor(ctx context.Context, vendorID int64, statuses []enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error) {
	panic("not implemented")
}

type stubStock struct {
	restored map[int64]int
}

func (s *stubStock) Restore(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if s.restored == nil {
		s.restored = make(map[int64]int)
	}
	s.restored[productID] += qty
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubLocker struct {
	acquired bool
	denied   bool
}

func (s *stubLocker) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.denied {
		return false, nil
	}
	s.acquired = true
	return true, nil
}

func (s *stubLocker) IdempotencyKey(scope, id string) string {
	return "bk:idempotency:" + scope + ":" + id
}

func staleOrder(id int64) *models.Order {
	return &models.Order{
		ID:            id,
		UserID:        7,
		VendorID:      3,
		Status:        enums.OrderStatusPending,
		PaymentMode:   enums.PaymentModeOnline,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     time.Now().Add(-3 * time.Hour),
	}
}

func sweeperConfig() config.Config {
	var cfg config.Config
	cfg.Delivery.PendingPaymentTTL = 2 * time.Hour
	cfg.Cron.PendingPaymentSweepInterval = 10 * time.Minute
	return cfg
}

func newSweeperFixture(t *testing.T, store *stubOrderStore, source *stubSource, locker Locker) (*Sweeper, *stubStock) {
	t.Helper()
	stock := &stubStock{}
	sweeper, err := NewSweeper(SweeperParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Tx:     stubTx{},
		Source: source,
		Orders: store,
		Stock:  stock,
		Locker: locker,
		Config: sweeperConfig(),
	})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	return sweeper, stock
}

func TestSweepCancelsStaleOrdersAndRestoresStock(t *testing.T) {
	order := staleOrder(101)
	store := &stubOrderStore{
		orders: map[int64]*models.Order{101: order},
		items: map[int64][]models.OrderItem{
			101: {{OrderID: 101, ProductID: 11, Quantity: 2}},
		},
	}
	sweeper, stock := newSweeperFixture(t, store, &stubSource{stale: []models.Order{*order}}, nil)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	swept := store.orders[101]
	if swept.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", swept.Status)
	}
	if swept.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected FAILED payment, got %s", swept.PaymentStatus)
	}
	if swept.CancellationReason == nil {
		t.Fatal("cancellation reason not recorded")
	}
	if stock.restored[11] != 2 {
		t.Fatalf("stock not restored: %+v", stock.restored)
	}
	if len(store.history) != 1 || store.history[0].ActorRole != enums.RoleSystem {
		t.Fatalf("expected system history entry, got %+v", store.history)
	}
}

func TestSweepSkipsOrdersPaidSinceScan(t *testing.T) {
	order := staleOrder(101)
	scanned := *order
	order.PaymentStatus = enums.PaymentStatusPaid
	order.Status = enums.OrderStatusPlaced
	store := &stubOrderStore{
		orders: map[int64]*models.Order{101: order},
		items:  map[int64][]models.OrderItem{},
	}
	sweeper, stock := newSweeperFixture(t, store, &stubSource{stale: []models.Order{scanned}}, nil)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if store.orders[101].Status != enums.OrderStatusPlaced {
		t.Fatal("paid order must not be cancelled by the sweeper")
	}
	if len(stock.restored) != 0 {
		t.Fatal("no stock should move for a paid order")
	}
}

func TestSweepYieldsWhenLockDenied(t *testing.T) {
	order := staleOrder(101)
	store := &stubOrderStore{orders: map[int64]*models.Order{101: order}}
	locker := &stubLocker{denied: true}
	sweeper, _ := newSweeperFixture(t, store, &stubSource{stale: []models.Order{*order}}, locker)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if store.orders[101].Status != enums.OrderStatusPending {
		t.Fatal("sweeper must not run without the lock")
	}
}
