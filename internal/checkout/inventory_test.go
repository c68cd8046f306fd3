package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	stocks := `
CREATE TABLE IF NOT EXISTS inventory_stocks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL UNIQUE,
  quantity INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  vendor_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price_paise INTEGER NOT NULL,
  image_url TEXT,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(stocks).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func stockQuantity(t *testing.T, db *gorm.DB, productID int64) int {
	t.Helper()
	var stock models.InventoryStock
	require.NoError(t, db.Where("product_id = ?", productID).First(&stock).Error)
	return stock.Quantity
}

func TestReserveDecrementsTrackedStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	require.NoError(t, db.Create(&models.InventoryStock{ProductID: 10, Quantity: 5}).Error)

	inv := NewInventory(db)
	require.NoError(t, inv.Reserve(context.Background(), db, 10, 2))
	require.Equal(t, 3, stockQuantity(t, db, 10))
}

func TestReserveTreatsZeroQuantityRowAsUnlimited(t *testing.T) {
	db := setupInventoryTestDB(t)
	require.NoError(t, db.Create(&models.InventoryStock{ProductID: 10, Quantity: 0}).Error)

	inv := NewInventory(db)
	require.NoError(t, inv.Reserve(context.Background(), db, 10, 2))

	// untracked rows are never decremented
	require.Equal(t, 0, stockQuantity(t, db, 10))
}

func TestReserveTreatsMissingRowAsUnlimited(t *testing.T) {
	db := setupInventoryTestDB(t)

	inv := NewInventory(db)
	require.NoError(t, inv.Reserve(context.Background(), db, 99, 4))
}

func TestReserveReportsProductNameAndAvailability(t *testing.T) {
	db := setupInventoryTestDB(t)
	require.NoError(t, db.Create(&models.Product{ID: 10, VendorID: 3, Name: "Paneer Tikka", PricePaise: 22000}).Error)
	require.NoError(t, db.Create(&models.InventoryStock{ProductID: 10, Quantity: 2}).Error)

	inv := NewInventory(db)
	err := inv.Reserve(context.Background(), db, 10, 5)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Paneer Tikka", details["product_name"])
	require.Equal(t, 2, details["available"])

	// a failed reserve must not touch the row
	require.Equal(t, 2, stockQuantity(t, db, 10))
}

func TestRestoreIncrementsTrackedStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	require.NoError(t, db.Create(&models.InventoryStock{ProductID: 10, Quantity: 3}).Error)

	inv := NewInventory(db)
	require.NoError(t, inv.Restore(context.Background(), db, 10, 2))
	require.Equal(t, 5, stockQuantity(t, db, 10))
}
