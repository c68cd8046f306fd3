package screenshots

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

// Repository covers payment screenshot and activity log persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, screenshot *models.PaymentScreenshot) error
	FindByID(ctx context.Context, id int64) (*models.PaymentScreenshot, error)
	Save(ctx context.Context, screenshot *models.PaymentScreenshot) error
	RejectOthers(ctx context.Context, orderID, keepID, reviewerID int64) error
	ListByStatus(ctx context.Context, status enums.ScreenshotStatus, params pagination.Params) ([]models.PaymentScreenshot, int64, error)
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
}
