package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

// Repository covers the catalogue reads the ordering flow needs plus the
// availability toggle vendors use to pull items off the menu.
type Repository interface {
	FindProduct(ctx context.Context, productID int64) (*models.Product, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]models.Product, error)
	SetAvailability(ctx context.Context, vendorID, productID int64, available bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalogue repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID int64) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor products")
	}
	return products, nil
}

// SetAvailability flips is_available for a product the vendor owns. The
// ownership check lives in the WHERE clause so a vendor can never toggle
// another vendor's item.
func (r *repository) SetAvailability(ctx context.Context, vendorID, productID int64, available bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND vendor_id = ?", productID, vendorID).
		Update("is_available", available)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "update product availability")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
