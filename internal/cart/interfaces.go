package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
)

// Repository covers cart persistence. WithTx rebinds the repository to a
// transaction so checkout can clear the cart atomically with order creation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	FindItem(ctx context.Context, userID, productID int64) (*models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

// ProductFinder loads catalogue rows the cart needs for validation and
// price snapshots.
type ProductFinder interface {
	FindProduct(ctx context.Context, productID int64) (*models.Product, error)
}
