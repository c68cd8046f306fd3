package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

// Service fans out order lifecycle notifications: in-app rows, FCM push to
// the customer's devices, and an order event for downstream consumers.
// Every method is fire-and-forget from the caller's point of view; failures
// are logged and swallowed so they can never fail an order operation.
type Service struct {
	repo      Repository
	pusher    Pusher
	publisher EventPublisher
	logg      *logger.Logger
}

// NewService builds a notification service. pusher and publisher are
// optional; nil disables that channel.
func NewService(repo Repository, pusher Pusher, publisher EventPublisher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, pusher: pusher, publisher: publisher, logg: logg}, nil
}

// OrderPlaced tells the vendor a new order is waiting and confirms to the
// customer.
func (s *Service) OrderPlaced(ctx context.Context, order *models.Order) {
	title := fmt.Sprintf("Order #%d placed", order.ID)
	s.dispatch(ctx, order, "order.placed",
		recipientMessage{enums.RecipientTypeVendor, order.VendorID, title, "You have a new order to accept."},
		recipientMessage{enums.RecipientTypeUser, order.UserID, title, "Your order has been placed."},
	)
}

// OrderStatusChanged announces a fulfillment transition to the customer.
func (s *Service) OrderStatusChanged(ctx context.Context, order *models.Order, note string) {
	title := fmt.Sprintf("Order #%d %s", order.ID, statusPhrase(order.Status))
	message := statusDetail(order.Status)
	if note != "" {
		message = note
	}
	recipients := []recipientMessage{
		{enums.RecipientTypeUser, order.UserID, title, message},
	}
	if order.Status == enums.OrderStatusCancelled {
		recipients = append(recipients,
			recipientMessage{enums.RecipientTypeVendor, order.VendorID, title, message})
	}
	s.dispatch(ctx, order, "order."+string(order.Status), recipients...)
}

// PaymentFailed tells the customer their online payment did not go through.
func (s *Service) PaymentFailed(ctx context.Context, order *models.Order, reason string) {
	message := "Your payment could not be completed. Please try again."
	if reason != "" {
		message = "Your payment failed: " + reason
	}
	s.dispatch(ctx, order, "payment.failed",
		recipientMessage{enums.RecipientTypeUser, order.UserID, fmt.Sprintf("Payment for order #%d failed", order.ID), message},
	)
}

// ProofRejected tells the customer their payment screenshot was turned down.
func (s *Service) ProofRejected(ctx context.Context, order *models.Order, note string) {
	message := "Your payment proof was rejected and the order was cancelled."
	if note != "" {
		message += " Reason: " + note
	}
	s.dispatch(ctx, order, "payment.proof_rejected",
		recipientMessage{enums.RecipientTypeUser, order.UserID, fmt.Sprintf("Payment proof for order #%d rejected", order.ID), message},
	)
}

// RegisterToken stores an FCM device token for the user.
func (s *Service) RegisterToken(ctx context.Context, userID int64, token, platform string) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token required")
	}
	row := &models.PushToken{UserID: userID, Token: token}
	if platform != "" {
		row.Platform = &platform
	}
	if err := s.repo.UpsertToken(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register push token")
	}
	return nil
}

// List returns a recipient's in-app notifications, newest first.
func (s *Service) List(ctx context.Context, recipientType enums.RecipientType, recipientID int64, params pagination.Params) ([]models.Notification, int64, error) {
	notifications, total, err := s.repo.ListForRecipient(ctx, recipientType, recipientID, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return notifications, total, nil
}

// MarkRead marks one of the recipient's notifications read.
func (s *Service) MarkRead(ctx context.Context, id, recipientID int64) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

type recipientMessage struct {
	recipientType enums.RecipientType
	recipientID   int64
	title         string
	message       string
}

func (s *Service) dispatch(ctx context.Context, order *models.Order, event string, recipients ...recipientMessage) {
	var errs error

	for _, recipient := range recipients {
		orderID := order.ID
		err := s.repo.Create(ctx, &models.Notification{
			RecipientType: recipient.recipientType,
			RecipientID:   recipient.recipientID,
			OrderID:       &orderID,
			Title:         recipient.title,
			Message:       recipient.message,
		})
		errs = multierr.Append(errs, err)

		if s.pusher != nil && recipient.recipientType == enums.RecipientTypeUser {
			errs = multierr.Append(errs, s.push(ctx, recipient, order.ID, event))
		}
	}

	if s.publisher != nil {
		errs = multierr.Append(errs, s.publishEvent(ctx, order, event))
	}

	if errs != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "notification dispatch incomplete", errs)
	}
}

func (s *Service) push(ctx context.Context, recipient recipientMessage, orderID int64, event string) error {
	tokens, err := s.repo.TokensForUser(ctx, recipient.recipientID)
	if err != nil || len(tokens) == 0 {
		return err
	}
	stale, err := s.pusher.SendToTokens(ctx, tokens, recipient.title, recipient.message, map[string]string{
		"event":    event,
		"order_id": strconv.FormatInt(orderID, 10),
	})
	if err != nil {
		return err
	}
	return s.repo.DeleteTokens(ctx, stale)
}

func (s *Service) publishEvent(ctx context.Context, order *models.Order, event string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event":          event,
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"vendor_id":      order.VendorID,
		"order_status":   order.Status,
		"payment_status": order.PaymentStatus,
		"occurred_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.publisher.PublishOrderEvent(ctx, payload, map[string]string{"event": event})
}

func statusPhrase(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusAccepted:
		return "accepted"
	case enums.OrderStatusPreparing:
		return "is being prepared"
	case enums.OrderStatusDispatched:
		return "is on the way"
	case enums.OrderStatusDelivered:
		return "delivered"
	case enums.OrderStatusCancelled:
		return "cancelled"
	default:
		return "updated"
	}
}

func statusDetail(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusAccepted:
		return "The restaurant has accepted your order."
	case enums.OrderStatusPreparing:
		return "The restaurant is preparing your food."
	case enums.OrderStatusDispatched:
		return "Your order has been dispatched."
	case enums.OrderStatusDelivered:
		return "Your order has been delivered. Enjoy!"
	case enums.OrderStatusCancelled:
		return "Your order has been cancelled."
	default:
		return "Your order status has changed."
	}
}
