package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
)

type stubPaymentsRepo struct {
	txns    []*models.PaymentTransaction
	refunds []*models.RefundHistory
	saveErr error
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	txn.ID = int64(len(s.txns) + 1)
	s.txns = append(s.txns, txn)
	return nil
}

func (s *stubPaymentsRepo) SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	for i, existing := range s.txns {
		if existing.ID == txn.ID {
			s.txns[i] = txn
			return nil
		}
	}
	s.txns = append(s.txns, txn)
	return nil
}

func (s *stubPaymentsRepo) FindByOrderAndStatus(ctx context.Context, orderID int64, status enums.TransactionStatus) (*models.PaymentTransaction, error) {
	for _, txn := range s.txns {
		if txn.OrderID == orderID && txn.Status == status {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) FindPendingByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentTransaction, error) {
	for _, txn := range s.txns {
		if txn.GatewayOrderID == gatewayOrderID && txn.Status == enums.TransactionStatusPending {
			copied := *txn
			copied.ID = txn.ID
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) CreateRefund(ctx context.Context, refund *models.RefundHistory) error {
	s.refunds = append(s.refunds, refund)
	return nil
}

type stubOrderStore struct {
	orders  map[int64]*models.Order
	history []models.OrderStatusHistory
}

func newStubOrderStore(seed ...*models.Order) *stubOrderStore {
	store := &stubOrderStore{orders: make(map[int64]*models.Order)}
	for _, order := range seed {
		store.orders[order.ID] = order
	}
	return store
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
	for _, order := range s.orders {
		if order.GatewayOrderID != nil && *order.GatewayOrderID == gatewayOrderID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
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
	panic("not implemented")
}

func (s *stubOrderStore) ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error) {
	panic("not implemented")
}

func (s *stubOrderStore) ListByVendor(ctx context.Context, vendorID int64, statuses []enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error) {
	panic("not implemented")
}

type stubGateway struct {
	createCalls  int
	refundCalls  int
	refundErr    error
	sigErr       error
	webhookErr   error
	lastRefundID string
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]interface{}) (*razorpay.OrderIntent, error) {
	g.createCalls++
	return &razorpay.OrderIntent{
		GatewayOrderID: fmt.Sprintf("order_rzp_%d", g.createCalls),
		AmountPaise:    amountPaise,
		Currency:       "INR",
		KeyID:          g.KeyID(),
	}, nil
}

func (g *stubGateway) RefundPayment(ctx context.Context, paymentID string, amountPaise int64, notes map[string]interface{}) (string, error) {
	g.refundCalls++
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.lastRefundID = "rfnd_1"
	return g.lastRefundID, nil
}

func (g *stubGateway) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	return g.sigErr
}

func (g *stubGateway) VerifyWebhookSignature(body []byte, signature string) error {
	return g.webhookErr
}

type stubPaymentsNotifier struct {
	placed []int64
	failed []int64
}

func (n *stubPaymentsNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	n.placed = append(n.placed, order.ID)
}

func (n *stubPaymentsNotifier) PaymentFailed(ctx context.Context, order *models.Order, reason string) {
	n.failed = append(n.failed, order.ID)
}

type stubPaymentsTx struct{}

func (stubPaymentsTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type paymentsFixture struct {
	svc      Service
	repo     *stubPaymentsRepo
	orders   *stubOrderStore
	gateway  *stubGateway
	notifier *stubPaymentsNotifier
}

func newPaymentsFixture(t *testing.T, seed ...*models.Order) *paymentsFixture {
	t.Helper()

	fx := &paymentsFixture{
		repo:     &stubPaymentsRepo{},
		orders:   newStubOrderStore(seed...),
		gateway:  &stubGateway{},
		notifier: &stubPaymentsNotifier{},
	}
	svc, err := NewService(Params{
		Repo:       fx.repo,
		OrdersRepo: fx.orders,
		Gateway:    fx.gateway,
		Tx:         stubPaymentsTx{},
		Notifier:   fx.notifier,
		Logger:     logger.New(logger.Options{ServiceName: "payments-test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fx.svc = svc
	return fx
}

func onlineOrder(id int64) *models.Order {
	return &models.Order{
		ID:            id,
		UserID:        7,
		VendorID:      3,
		Status:        enums.OrderStatusPending,
		PaymentMode:   enums.PaymentModeOnline,
		PaymentStatus: enums.PaymentStatusPending,
		TotalPaise:    34500,
	}
}

func withGatewayOrder(order *models.Order, gatewayOrderID string) *models.Order {
	order.GatewayOrderID = &gatewayOrderID
	return order
}

func capturedEvent(gatewayOrderID, paymentID string) []byte {
	event := map[string]interface{}{
		"id":    "evt_1",
		"event": EventPaymentCaptured,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       paymentID,
					"order_id": gatewayOrderID,
					"amount":   34500,
					"method":   "upi",
				},
			},
		},
	}
	body, _ := json.Marshal(event)
	return body
}

func failedEvent(gatewayOrderID string) []byte {
	event := map[string]interface{}{
		"id":    "evt_2",
		"event": EventPaymentFailed,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":                "pay_failed",
					"order_id":          gatewayOrderID,
					"error_code":        "BAD_REQUEST_ERROR",
					"error_description": "card declined",
				},
			},
		},
	}
	body, _ := json.Marshal(event)
	return body
}

func TestCreateIntentRegistersOrderOnce(t *testing.T) {
	fx := newPaymentsFixture(t, onlineOrder(101))

	intent, err := fx.svc.CreateIntent(context.Background(), 101)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.GatewayOrderID != "order_rzp_1" {
		t.Fatalf("unexpected gateway order id %s", intent.GatewayOrderID)
	}
	if fx.gateway.createCalls != 1 {
		t.Fatalf("expected one gateway call, got %d", fx.gateway.createCalls)
	}
	saved := fx.orders.orders[101]
	if saved.GatewayOrderID == nil || *saved.GatewayOrderID != "order_rzp_1" {
		t.Fatal("gateway order id not persisted")
	}
	if len(fx.repo.txns) != 1 || fx.repo.txns[0].Status != enums.TransactionStatusPending {
		t.Fatalf("expected one pending transaction, got %+v", fx.repo.txns)
	}
	if fx.repo.txns[0].AmountPaise != 34500 {
		t.Fatalf("transaction amount mismatch: %d", fx.repo.txns[0].AmountPaise)
	}
}

func TestCreateIntentReusesExistingRegistration(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_existing"))

	intent, err := fx.svc.CreateIntent(context.Background(), 101)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.GatewayOrderID != "order_rzp_existing" {
		t.Fatalf("expected reused intent, got %s", intent.GatewayOrderID)
	}
	if intent.KeyID != "rzp_test_key" {
		t.Fatalf("reused intent missing key id: %+v", intent)
	}
	if fx.gateway.createCalls != 0 {
		t.Fatal("gateway must not be called when an intent exists")
	}
}

func TestCreateIntentRejectsNonOnlineOrder(t *testing.T) {
	order := onlineOrder(101)
	order.PaymentMode = enums.PaymentModeCOD
	order.PaymentStatus = enums.PaymentStatusCOD
	fx := newPaymentsFixture(t, order)

	_, err := fx.svc.CreateIntent(context.Background(), 101)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateIntentAllowsRetryAfterFailure(t *testing.T) {
	order := withGatewayOrder(onlineOrder(101), "order_rzp_existing")
	order.PaymentStatus = enums.PaymentStatusFailed
	fx := newPaymentsFixture(t, order)

	intent, err := fx.svc.CreateIntent(context.Background(), 101)
	if err != nil {
		t.Fatalf("create intent after failure: %v", err)
	}
	if intent.GatewayOrderID != "order_rzp_existing" {
		t.Fatalf("expected reused intent, got %s", intent.GatewayOrderID)
	}
}

func TestCreateIntentRejectsSettledOrder(t *testing.T) {
	order := onlineOrder(101)
	order.PaymentStatus = enums.PaymentStatusPaid
	fx := newPaymentsFixture(t, order)

	_, err := fx.svc.CreateIntent(context.Background(), 101)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateIntentForUserChecksOwnership(t *testing.T) {
	fx := newPaymentsFixture(t, onlineOrder(101))

	_, err := fx.svc.CreateIntentForUser(context.Background(), 99, 101)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestVerifyClientPaymentSettlesOrder(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_1"))
	fx.repo.txns = []*models.PaymentTransaction{{
		ID:             1,
		OrderID:        101,
		GatewayOrderID: "order_rzp_1",
		Status:         enums.TransactionStatusPending,
		AmountPaise:    34500,
	}}

	order, err := fx.svc.VerifyClientPayment(context.Background(), VerifyInput{
		UserID:           7,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if order.Status != enums.OrderStatusPlaced || order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected PLACED/PAID, got %s/%s", order.Status, order.PaymentStatus)
	}
	if order.TransactionID == nil || *order.TransactionID != "pay_1" {
		t.Fatal("transaction id not recorded on order")
	}
	if fx.repo.txns[0].Status != enums.TransactionStatusSuccess {
		t.Fatalf("transaction not marked success: %+v", fx.repo.txns[0])
	}
	if len(fx.orders.history) != 1 || fx.orders.history[0].ActorRole != enums.RoleSystem {
		t.Fatalf("expected system history entry, got %+v", fx.orders.history)
	}
	if len(fx.notifier.placed) != 1 {
		t.Fatal("vendor was not notified of the placed order")
	}
}

func TestVerifyClientPaymentRejectsBadSignature(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_1"))
	fx.gateway.sigErr = pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment signature mismatch")
	fx.repo.txns = []*models.PaymentTransaction{{
		ID:             1,
		OrderID:        101,
		GatewayOrderID: "order_rzp_1",
		Status:         enums.TransactionStatusPending,
		AmountPaise:    34500,
	}}

	_, err := fx.svc.VerifyClientPayment(context.Background(), VerifyInput{
		UserID:           7,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_1",
		Signature:        "bad",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeVerificationFailed {
		t.Fatalf("expected verification failure, got %v", err)
	}
	if fx.orders.orders[101].PaymentStatus != enums.PaymentStatusPending {
		t.Fatal("order must stay pending on a bad signature")
	}
	if fx.repo.txns[0].Status != enums.TransactionStatusFailed {
		t.Fatalf("transaction not marked failed: %+v", fx.repo.txns[0])
	}
}

func TestVerifyClientPaymentRejectsForeignUser(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_1"))

	_, err := fx.svc.VerifyClientPayment(context.Background(), VerifyInput{
		UserID:           99,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestVerifyClientPaymentRejectsMismatchedOrderBeforeSettling(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_1"))
	fx.repo.txns = []*models.PaymentTransaction{{
		ID:             1,
		OrderID:        101,
		GatewayOrderID: "order_rzp_1",
		Status:         enums.TransactionStatusPending,
		AmountPaise:    34500,
	}}

	_, err := fx.svc.VerifyClientPayment(context.Background(), VerifyInput{
		UserID:           7,
		OrderID:          202,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fx.orders.orders[101].PaymentStatus != enums.PaymentStatusPending {
		t.Fatal("a mismatched order id must not settle the payment")
	}
	if fx.repo.txns[0].Status != enums.TransactionStatusPending {
		t.Fatalf("transaction must stay pending: %+v", fx.repo.txns[0])
	}
}

func TestWebhookCapturedSettlesOrder(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_1"))

	res, err := fx.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_1", "pay_1"), "sig")
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if res.Duplicate || res.Ignored {
		t.Fatalf("expected fresh settlement, got %+v", res)
	}
	order := fx.orders.orders[101]
	if order.Status != enums.OrderStatusPlaced || order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected PLACED/PAID, got %s/%s", order.Status, order.PaymentStatus)
	}
	if len(fx.repo.txns) != 1 || fx.repo.txns[0].Method == nil || *fx.repo.txns[0].Method != "upi" {
		t.Fatalf("expected success transaction with method, got %+v", fx.repo.txns)
	}
}

func TestWebhookCapturedReplayIsBenign(t *testing.T) {
	order := withGatewayOrder(onlineOrder(101), "order_rzp_1")
	order.Status = enums.OrderStatusPlaced
	order.PaymentStatus = enums.PaymentStatusPaid
	fx := newPaymentsFixture(t, order)

	res, err := fx.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_1", "pay_1"), "sig")
	if err != nil {
		t.Fatalf("webhook replay: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("expected duplicate, got %+v", res)
	}
	if len(fx.notifier.placed) != 0 {
		t.Fatal("replay must not notify again")
	}
}

func TestWebhookFailedMarksPaymentFailed(t *testing.T) {
	fx := newPaymentsFixture(t, withGatewayOrder(onlineOrder(101), "order_rzp_1"))
	fx.repo.txns = []*models.PaymentTransaction{{
		ID:             1,
		OrderID:        101,
		GatewayOrderID: "order_rzp_1",
		Status:         enums.TransactionStatusPending,
		AmountPaise:    34500,
	}}

	res, err := fx.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_1"), "sig")
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("expected fresh failure, got %+v", res)
	}
	order := fx.orders.orders[101]
	if order.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected FAILED, got %s", order.PaymentStatus)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("failure must not advance fulfillment, got %s", order.Status)
	}
	if fx.repo.txns[0].Status != enums.TransactionStatusFailed {
		t.Fatalf("transaction not marked failed: %+v", fx.repo.txns[0])
	}
	if fx.repo.txns[0].FailureReason == nil || *fx.repo.txns[0].FailureReason != "card declined" {
		t.Fatal("failure reason not recorded")
	}
	if len(fx.notifier.failed) != 1 {
		t.Fatal("customer was not notified of the failure")
	}
}

func TestWebhookFailedNeverDowngradesPaidOrder(t *testing.T) {
	order := withGatewayOrder(onlineOrder(101), "order_rzp_1")
	order.Status = enums.OrderStatusPlaced
	order.PaymentStatus = enums.PaymentStatusPaid
	fx := newPaymentsFixture(t, order)

	res, err := fx.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_1"), "sig")
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("expected benign ack, got %+v", res)
	}
	if fx.orders.orders[101].PaymentStatus != enums.PaymentStatusPaid {
		t.Fatal("failed event downgraded a paid order")
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	fx := newPaymentsFixture(t)

	body, _ := json.Marshal(map[string]interface{}{"id": "evt_3", "event": "invoice.paid"})
	res, err := fx.svc.HandleWebhook(context.Background(), body, "sig")
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if !res.Ignored {
		t.Fatalf("expected ignored event, got %+v", res)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	fx := newPaymentsFixture(t)
	fx.gateway.webhookErr = pkgerrors.New(pkgerrors.CodeVerificationFailed, "webhook signature mismatch")

	_, err := fx.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_1", "pay_1"), "bad")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeVerificationFailed {
		t.Fatalf("expected verification failure, got %v", err)
	}
}

func TestRefundOrderIssuesGatewayRefund(t *testing.T) {
	order := withGatewayOrder(onlineOrder(101), "order_rzp_1")
	order.Status = enums.OrderStatusCancelled
	order.PaymentStatus = enums.PaymentStatusPaid
	fx := newPaymentsFixture(t, order)
	paymentID := "pay_1"
	fx.repo.txns = []*models.PaymentTransaction{{
		ID:               1,
		OrderID:          101,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: &paymentID,
		Status:           enums.TransactionStatusSuccess,
		AmountPaise:      34500,
	}}

	if err := fx.svc.RefundOrder(context.Background(), 101, "customer cancelled"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if fx.gateway.refundCalls != 1 {
		t.Fatalf("expected one gateway refund, got %d", fx.gateway.refundCalls)
	}
	if len(fx.repo.refunds) != 1 || !fx.repo.refunds[0].Succeeded {
		t.Fatalf("expected successful refund row, got %+v", fx.repo.refunds)
	}
	if fx.repo.refunds[0].GatewayRefundID == nil || *fx.repo.refunds[0].GatewayRefundID != "rfnd_1" {
		t.Fatal("gateway refund id not recorded")
	}
	if fx.repo.txns[0].Status != enums.TransactionStatusRefunded {
		t.Fatalf("transaction not marked refunded: %+v", fx.repo.txns[0])
	}
	if fx.orders.orders[101].PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatal("order payment status not refunded")
	}
}

func TestRefundOrderWithoutCaptureIsStateConflict(t *testing.T) {
	fx := newPaymentsFixture(t, onlineOrder(101))

	err := fx.svc.RefundOrder(context.Background(), 101, "customer cancelled")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if fx.gateway.refundCalls != 0 {
		t.Fatal("gateway must not be called without a captured payment")
	}
}

func TestRefundOrderRecordsGatewayFailure(t *testing.T) {
	order := withGatewayOrder(onlineOrder(101), "order_rzp_1")
	order.PaymentStatus = enums.PaymentStatusPaid
	fx := newPaymentsFixture(t, order)
	paymentID := "pay_1"
	fx.repo.txns = []*models.PaymentTransaction{{
		ID:               1,
		OrderID:          101,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: &paymentID,
		Status:           enums.TransactionStatusSuccess,
		AmountPaise:      34500,
	}}
	fx.gateway.refundErr = pkgerrors.New(pkgerrors.CodeUpstream, "gateway unavailable")

	err := fx.svc.RefundOrder(context.Background(), 101, "customer cancelled")
	if err == nil {
		t.Fatal("expected refund error")
	}
	if len(fx.repo.refunds) != 1 || fx.repo.refunds[0].Succeeded {
		t.Fatalf("expected failed refund row, got %+v", fx.repo.refunds)
	}
	if fx.repo.txns[0].Status != enums.TransactionStatusSuccess {
		t.Fatal("transaction must stay success after a failed refund")
	}
}
