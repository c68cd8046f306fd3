package screenshots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/payments"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/storage"
)

// manualTransactionRef is recorded when the customer did not claim a
// transaction id with their proof.
const manualTransactionRef = "MANUAL_VERIFY"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier announces review outcomes to the customer and vendor.
// Implementations must not fail the review.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	ProofRejected(ctx context.Context, order *models.Order, note string)
}

// SubmitInput is a customer proof upload for a manual payment order.
type SubmitInput struct {
	OrderID     int64
	UserID      int64
	FileName    string
	ContentType string
	Body        io.Reader
	ClaimedTxID string
}

// ReviewInput is an admin decision on a submitted proof.
type ReviewInput struct {
	ScreenshotID int64
	AdminID      int64
	Decision     enums.ScreenshotStatus
	Note         string
}

// Service handles manual payment proof submission and admin review.
type Service interface {
	SubmitProof(ctx context.Context, input SubmitInput) (*models.PaymentScreenshot, error)
	Review(ctx context.Context, input ReviewInput) (*models.Order, error)
	ListPending(ctx context.Context, params pagination.Params) ([]models.PaymentScreenshot, int64, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	payments   payments.Repository
	stock      orders.StockRestorer
	store      storage.Store
	tx         txRunner
	notifier   Notifier
	logg       *logger.Logger
}

// Params bundles the screenshot service dependencies.
type Params struct {
	Repo       Repository
	OrdersRepo orders.Repository
	Payments   payments.Repository
	Stock      orders.StockRestorer
	Store      storage.Store
	Tx         txRunner
	Notifier   Notifier
	Logger     *logger.Logger
}

// NewService builds a screenshot review service.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "screenshots repository required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if params.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock restorer required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "screenshot store required")
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
		payments:   params.Payments,
		stock:      params.Stock,
		store:      params.Store,
		tx:         params.Tx,
		notifier:   params.Notifier,
		logg:       params.Logger,
	}, nil
}

// SubmitProof stores the uploaded image and opens a pending review. The
// order moves to VERIFICATION_PENDING; fulfillment status is untouched
// until an admin decides.
func (s *service) SubmitProof(ctx context.Context, input SubmitInput) (*models.PaymentScreenshot, error) {
	if input.Body == nil || input.FileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof image required")
	}

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.PaymentMode != enums.PaymentModeManual {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not use manual payment")
	}
	switch order.PaymentStatus {
	case enums.PaymentStatusPendingQR, enums.PaymentStatusVerificationPending:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment proof")
	}

	// The blob goes out before the transaction; a stored image without a
	// row is harmless, the reverse is a broken review queue.
	name := fmt.Sprintf("order_%d_%d_%s", order.ID, time.Now().UnixNano(), input.FileName)
	imageURL, err := s.store.Save(ctx, name, input.ContentType, input.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store proof image")
	}

	screenshot := &models.PaymentScreenshot{
		OrderID:  order.ID,
		UserID:   input.UserID,
		ImageURL: imageURL,
		Status:   enums.ScreenshotStatusPending,
	}
	if input.ClaimedTxID != "" {
		screenshot.TransactionRef = &input.ClaimedTxID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		locked, err := ordersRepo.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if locked.PaymentStatus != enums.PaymentStatusPendingQR &&
			locked.PaymentStatus != enums.PaymentStatusVerificationPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment proof")
		}

		if err := s.repo.WithTx(tx).Create(ctx, screenshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create screenshot")
		}

		locked.PaymentStatus = enums.PaymentStatusVerificationPending
		locked.PaymentScreenshot = &imageURL
		if err := ordersRepo.Save(ctx, locked); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return screenshot, nil
}

// Review applies an admin decision while holding the order row lock, so a
// racing webhook or vendor update never sees half a decision.
func (s *service) Review(ctx context.Context, input ReviewInput) (*models.Order, error) {
	if input.Decision != enums.ScreenshotStatusVerified && input.Decision != enums.ScreenshotStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be verified or rejected")
	}

	var (
		reviewed *models.Order
		placed   bool
		rejected bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		screenshot, err := repo.FindByID(ctx, input.ScreenshotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "screenshot not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load screenshot")
		}
		if screenshot.Status != enums.ScreenshotStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "screenshot already reviewed")
		}

		ordersRepo := s.ordersRepo.WithTx(tx)
		order, err := ordersRepo.FindByIDForUpdate(ctx, screenshot.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}

		now := time.Now().UTC()
		screenshot.Status = input.Decision
		screenshot.ReviewedBy = &input.AdminID
		screenshot.ReviewedAt = &now
		if input.Note != "" {
			screenshot.ReviewNote = &input.Note
		}
		if err := repo.Save(ctx, screenshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save screenshot")
		}

		switch input.Decision {
		case enums.ScreenshotStatusVerified:
			placed, err = s.applyVerified(ctx, tx, order, screenshot, input.AdminID)
		case enums.ScreenshotStatusRejected:
			rejected, err = s.applyRejected(ctx, tx, order, input.AdminID, input.Note)
		}
		if err != nil {
			return err
		}

		detail := fmt.Sprintf("screenshot %d %s", screenshot.ID, input.Decision)
		if err := repo.LogActivity(ctx, &models.ActivityLog{
			ActorID:   &input.AdminID,
			ActorRole: enums.RoleAdmin,
			Action:    "payment_screenshot_review",
			OrderID:   &order.ID,
			Detail:    &detail,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log review")
		}

		reviewed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if placed {
			s.notifier.OrderPlaced(ctx, reviewed)
		}
		if rejected {
			s.notifier.ProofRejected(ctx, reviewed, input.Note)
		}
	}
	return reviewed, nil
}

// applyVerified settles the order from a verified proof. It never downgrades
// an already advanced order and tolerates the payment having been confirmed
// through another path.
func (s *service) applyVerified(ctx context.Context, tx *gorm.DB, order *models.Order, screenshot *models.PaymentScreenshot, adminID int64) (bool, error) {
	ordersRepo := s.ordersRepo.WithTx(tx)

	txRef := manualTransactionRef
	if screenshot.TransactionRef != nil && *screenshot.TransactionRef != "" {
		txRef = *screenshot.TransactionRef
	}

	alreadyPaid := order.PaymentStatus == enums.PaymentStatusPaid

	if !alreadyPaid {
		order.PaymentStatus = enums.PaymentStatusPaid
		order.TransactionID = &txRef
	}
	placed := false
	if order.Status == enums.OrderStatusPending {
		now := time.Now().UTC()
		order.Status = enums.OrderStatusPlaced
		order.PlacedAt = &now
		placed = true
	}
	if err := ordersRepo.Save(ctx, order); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}

	if !alreadyPaid {
		err := s.payments.WithTx(tx).CreateTransaction(ctx, &models.PaymentTransaction{
			OrderID:          order.ID,
			GatewayOrderID:   fmt.Sprintf("manual_%d", order.ID),
			GatewayPaymentID: &txRef,
			Status:           enums.TransactionStatusSuccess,
			AmountPaise:      order.TotalPaise,
		})
		if err != nil && !db.IsUniqueViolation(err, "uq_payment_transactions_order_success") {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record manual transaction")
		}
	}

	if err := s.repo.WithTx(tx).RejectOthers(ctx, order.ID, screenshot.ID, adminID); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling screenshots")
	}

	note := "payment verified from screenshot"
	if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    order.Status,
		ActorRole: enums.RoleAdmin,
		ActorID:   &adminID,
		Note:      &note,
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}
	return placed || !alreadyPaid, nil
}

// applyRejected fails the payment and cancels the order, unless the payment
// was independently confirmed or the food already arrived.
func (s *service) applyRejected(ctx context.Context, tx *gorm.DB, order *models.Order, adminID int64, reviewNote string) (bool, error) {
	if order.PaymentStatus == enums.PaymentStatusPaid || order.Status == enums.OrderStatusDelivered {
		return false, nil
	}

	ordersRepo := s.ordersRepo.WithTx(tx)

	items, err := ordersRepo.FindItems(ctx, order.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	for _, item := range items {
		if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return false, err
		}
	}

	now := time.Now().UTC()
	reason := "payment proof rejected"
	if reviewNote != "" {
		reason = reason + ": " + reviewNote
	}
	order.PaymentStatus = enums.PaymentStatusFailed
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancellationReason = &reason
	if err := ordersRepo.Save(ctx, order); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}

	if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    order.Status,
		ActorRole: enums.RoleAdmin,
		ActorID:   &adminID,
		Note:      &reason,
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}
	return true, nil
}

// ListPending returns the admin review queue, oldest first.
func (s *service) ListPending(ctx context.Context, params pagination.Params) ([]models.PaymentScreenshot, int64, error) {
	return s.repo.ListByStatus(ctx, enums.ScreenshotStatusPending, params)
}
