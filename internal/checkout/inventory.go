package checkout

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

// Inventory adjusts tracked stock rows. Products without a stock row, or
// with a zero-quantity row, are treated as unlimited supply.
type Inventory struct {
	db *gorm.DB
}

// NewInventory builds an inventory store bound to the provided DB.
func NewInventory(db *gorm.DB) *Inventory {
	return &Inventory{db: db}
}

// Reserve locks the stock row for the product and decrements it. It must run
// inside the checkout transaction.
func (i *Inventory) Reserve(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if tx == nil {
		tx = i.db
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var stock models.InventoryStock
	err := lockStockRow(tx.WithContext(ctx)).
		Where("product_id = ?", productID).
		First(&stock).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock row")
	}

	// A zero-quantity row means the vendor does not track stock for this
	// product, same as having no row at all.
	if stock.Quantity == 0 {
		return nil
	}
	if stock.Quantity < qty {
		return insufficientStock(tx.WithContext(ctx), productID, stock.Quantity)
	}

	stock.Quantity -= qty
	if err := tx.WithContext(ctx).Save(&stock).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	return nil
}

// Restore returns reserved stock after a cancellation. Untracked products
// are a no-op.
func (i *Inventory) Restore(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if tx == nil {
		tx = i.db
	}
	if qty <= 0 {
		return nil
	}

	var stock models.InventoryStock
	err := lockStockRow(tx.WithContext(ctx)).
		Where("product_id = ?", productID).
		First(&stock).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock row")
	}

	stock.Quantity += qty
	if err := tx.WithContext(ctx).Save(&stock).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	return nil
}

func insufficientStock(db *gorm.DB, productID int64, available int) error {
	var product models.Product
	name := ""
	if err := db.Where("id = ?", productID).First(&product).Error; err == nil {
		name = product.Name
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{
			"product_id":   productID,
			"product_name": name,
			"available":    available,
		})
}

// lockStockRow takes a row lock on Postgres; SQLite writers already
// serialize on the database file.
func lockStockRow(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
