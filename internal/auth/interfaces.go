package auth

import (
	"context"
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
)

// UserStore covers the account reads and writes the credential flows need.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
}

// VendorFinder resolves the vendor a user operates, for vendor-role tokens.
type VendorFinder interface {
	FindByOwner(ctx context.Context, ownerUserID int64) (*models.Vendor, error)
}
