package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

// Repository covers notification rows and FCM device tokens.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, notification *models.Notification) error
	ListForRecipient(ctx context.Context, recipientType enums.RecipientType, recipientID int64, params pagination.Params) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	UpsertToken(ctx context.Context, token *models.PushToken) error
	TokensForUser(ctx context.Context, userID int64) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// Pusher delivers a push message to device tokens and reports which tokens
// are stale. pkg/fcm.Client implements it.
type Pusher interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

// EventPublisher emits order lifecycle events for downstream consumers.
// pkg/pubsub.Client implements it.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, data []byte, attributes map[string]string) error
}
