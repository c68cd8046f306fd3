package orders

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order   *models.Order
	items   []models.OrderItem
	history []models.OrderStatusHistory
	saved   *models.Order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) FindByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrdersRepo) FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	if s.order == nil || s.order.GatewayOrderID == nil || *s.order.GatewayOrderID != gatewayOrderID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) Save(ctx context.Context, order *models.Order) error {
	copied := *order
	s.saved = &copied
	s.order = &copied
	return nil
}

func (s *stubOrdersRepo) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubOrdersRepo) FindItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return s.items, nil
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListByVendor(ctx context.Context, vendorID int64, statuses []enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error) {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubStockRestorer struct {
	restored map[int64]int
}

func (s *stubStockRestorer) Restore(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if s.restored == nil {
		s.restored = make(map[int64]int)
	}
	s.restored[productID] += qty
	return nil
}

type stubRefundIssuer struct {
	calls []int64
	err   error
}

func (s *stubRefundIssuer) RefundOrder(ctx context.Context, orderID int64, reason string) error {
	s.calls = append(s.calls, orderID)
	return s.err
}

type stubNotifier struct {
	events int
}

func (s *stubNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, note string) {
	s.events++
}

func newOrdersService(t *testing.T, repo Repository, stock StockRestorer, refunds RefundIssuer, notifier Notifier) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, stock, refunds, notifier, logger.New(logger.Options{ServiceName: "orders-test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func placedOrder() *models.Order {
	return &models.Order{
		ID:            1,
		UserID:        7,
		VendorID:      3,
		Status:        enums.OrderStatusPlaced,
		PaymentMode:   enums.PaymentModeCOD,
		PaymentStatus: enums.PaymentStatusCOD,
		TotalPaise:    30000,
	}
}

func TestVendorUpdateStatusHappyPath(t *testing.T) {
	repo := &stubOrdersRepo{order: placedOrder()}
	notifier := &stubNotifier{}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, notifier)

	updated, err := svc.VendorUpdateStatus(context.Background(), VendorStatusInput{
		OrderID:     1,
		VendorID:    3,
		ActorUserID: 11,
		Target:      enums.OrderStatusAccepted,
	})
	if err != nil {
		t.Fatalf("vendor update: %v", err)
	}
	if updated.Status != enums.OrderStatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", updated.Status)
	}
	if len(repo.history) != 1 || repo.history[0].Status != enums.OrderStatusAccepted {
		t.Fatalf("expected history entry, got %+v", repo.history)
	}
	if repo.history[0].ActorRole != enums.RoleVendor {
		t.Fatalf("expected vendor actor, got %s", repo.history[0].ActorRole)
	}
	if notifier.events != 1 {
		t.Fatalf("expected one notification, got %d", notifier.events)
	}
}

func TestVendorUpdateStatusRejectsWrongVendor(t *testing.T) {
	repo := &stubOrdersRepo{order: placedOrder()}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	_, err := svc.VendorUpdateStatus(context.Background(), VendorStatusInput{
		OrderID: 1, VendorID: 99, ActorUserID: 11, Target: enums.OrderStatusAccepted,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected CodeForbidden, got %v", err)
	}
}

func TestVendorUpdateStatusRejectsIllegalTransition(t *testing.T) {
	repo := &stubOrdersRepo{order: placedOrder()}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	_, err := svc.VendorUpdateStatus(context.Background(), VendorStatusInput{
		OrderID: 1, VendorID: 3, ActorUserID: 11, Target: enums.OrderStatusDelivered,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected CodeStateConflict, got %v", err)
	}
	if repo.saved != nil {
		t.Fatal("order must not be saved on rejected transition")
	}
}

func TestVendorUpdateStatusRejectsNonVendorTarget(t *testing.T) {
	repo := &stubOrdersRepo{order: placedOrder()}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	_, err := svc.VendorUpdateStatus(context.Background(), VendorStatusInput{
		OrderID: 1, VendorID: 3, ActorUserID: 11, Target: enums.OrderStatusCancelled,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestDeliveredSettlesCashOnDelivery(t *testing.T) {
	order := placedOrder()
	order.Status = enums.OrderStatusDispatched
	repo := &stubOrdersRepo{order: order}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	updated, err := svc.VendorUpdateStatus(context.Background(), VendorStatusInput{
		OrderID: 1, VendorID: 3, ActorUserID: 11, Target: enums.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected COD order to settle as PAID, got %s", updated.PaymentStatus)
	}
	if updated.DeliveredAt == nil {
		t.Fatal("expected delivered timestamp")
	}
}

func TestCancelRestoresStockAndSkipsRefundWhenUnpaid(t *testing.T) {
	order := placedOrder()
	repo := &stubOrdersRepo{
		order: order,
		items: []models.OrderItem{
			{OrderID: 1, ProductID: 10, Quantity: 2},
			{OrderID: 1, ProductID: 11, Quantity: 1},
		},
	}
	stock := &stubStockRestorer{}
	refunds := &stubRefundIssuer{}
	svc := newOrdersService(t, repo, stock, refunds, nil)

	updated, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: 1, ActorUserID: 7, ActorRole: enums.RoleCustomer, Reason: "changed my mind",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", updated.Status)
	}
	if stock.restored[10] != 2 || stock.restored[11] != 1 {
		t.Fatalf("expected stock restored, got %+v", stock.restored)
	}
	if len(refunds.calls) != 0 {
		t.Fatal("unpaid order must not trigger a refund")
	}
}

func TestCancelPaidOrderTriggersRefund(t *testing.T) {
	order := placedOrder()
	order.PaymentMode = enums.PaymentModeOnline
	order.PaymentStatus = enums.PaymentStatusPaid
	repo := &stubOrdersRepo{order: order}
	refunds := &stubRefundIssuer{}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, refunds, nil)

	if _, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: 1, ActorUserID: 7, ActorRole: enums.RoleCustomer,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(refunds.calls) != 1 || refunds.calls[0] != 1 {
		t.Fatalf("expected refund for order 1, got %+v", refunds.calls)
	}
}

func TestCancelRefundFailureDoesNotFailCancel(t *testing.T) {
	order := placedOrder()
	order.PaymentStatus = enums.PaymentStatusPaid
	repo := &stubOrdersRepo{order: order}
	refunds := &stubRefundIssuer{err: pkgerrors.New(pkgerrors.CodeUpstream, "gateway down")}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, refunds, nil)

	updated, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: 1, ActorUserID: 7, ActorRole: enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("cancel should survive refund failure: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", updated.Status)
	}
}

func TestCancelAllowsDispatchedOrder(t *testing.T) {
	order := placedOrder()
	order.Status = enums.OrderStatusDispatched
	repo := &stubOrdersRepo{order: order}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	updated, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: 1, ActorUserID: 7, ActorRole: enums.RoleCustomer, Reason: "wrong address",
	})
	if err != nil {
		t.Fatalf("dispatched orders stay cancellable until delivery: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", updated.Status)
	}
}

func TestCancelRejectsDeliveredOrder(t *testing.T) {
	order := placedOrder()
	order.Status = enums.OrderStatusDelivered
	repo := &stubOrdersRepo{order: order}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	_, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: 1, ActorUserID: 7, ActorRole: enums.RoleCustomer,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected CodeStateConflict, got %v", err)
	}
}

func TestCancelRejectsForeignCustomer(t *testing.T) {
	repo := &stubOrdersRepo{order: placedOrder()}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	_, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: 1, ActorUserID: 999, ActorRole: enums.RoleCustomer,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected CodeForbidden, got %v", err)
	}
}

func TestGetForUserOwnership(t *testing.T) {
	repo := &stubOrdersRepo{order: placedOrder()}
	svc := newOrdersService(t, repo, &stubStockRestorer{}, &stubRefundIssuer{}, nil)

	if _, err := svc.GetForUser(context.Background(), 7, 1); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err := svc.GetForUser(context.Background(), 8, 1)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected CodeForbidden, got %v", err)
	}
}
