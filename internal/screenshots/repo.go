package screenshots

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a screenshots repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, screenshot *models.PaymentScreenshot) error {
	return r.db.WithContext(ctx).Create(screenshot).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.PaymentScreenshot, error) {
	var screenshot models.PaymentScreenshot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&screenshot).Error
	if err != nil {
		return nil, err
	}
	return &screenshot, nil
}

func (r *repository) Save(ctx context.Context, screenshot *models.PaymentScreenshot) error {
	return r.db.WithContext(ctx).Save(screenshot).Error
}

// RejectOthers closes every other open submission once one proof has been
// accepted as authoritative.
func (r *repository) RejectOthers(ctx context.Context, orderID, keepID, reviewerID int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.PaymentScreenshot{}).
		Where("order_id = ? AND id <> ? AND status <> ?", orderID, keepID, enums.ScreenshotStatusRejected).
		Updates(map[string]interface{}{
			"status":      enums.ScreenshotStatusRejected,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
		}).Error
}

func (r *repository) ListByStatus(ctx context.Context, status enums.ScreenshotStatus, params pagination.Params) ([]models.PaymentScreenshot, int64, error) {
	params = pagination.Normalize(params)

	query := r.db.WithContext(ctx).Model(&models.PaymentScreenshot{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var screenshots []models.PaymentScreenshot
	err := query.
		Order("created_at ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&screenshots).Error
	if err != nil {
		return nil, 0, err
	}
	return screenshots, total, nil
}

func (r *repository) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
