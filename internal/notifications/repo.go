package notifications

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a notifications repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) ListForRecipient(ctx context.Context, recipientType enums.RecipientType, recipientID int64, params pagination.Params) ([]models.Notification, int64, error) {
	params = pagination.Normalize(params)

	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_type = ? AND recipient_id = ?", recipientType, recipientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *repository) MarkRead(ctx context.Context, id, recipientID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// UpsertToken registers a device token, moving it to the new user when it
// was previously registered elsewhere.
func (r *repository) UpsertToken(ctx context.Context, token *models.PushToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
		}).
		Create(token).Error
}

func (r *repository) TokensForUser(ctx context.Context, userID int64) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&models.PushToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *repository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("token IN ?", tokens).
		Delete(&models.PushToken{}).Error
}
