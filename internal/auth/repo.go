package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

type userRepo struct {
	db *gorm.DB
}

// NewUserStore builds the account repository bound to the provided DB.
func NewUserStore(db *gorm.DB) UserStore {
	return &userRepo{db: db}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return nil
}

func (r *userRepo) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	return nil
}

type vendorRepo struct {
	db *gorm.DB
}

// NewVendorFinder builds the vendor lookup used when minting vendor tokens.
func NewVendorFinder(db *gorm.DB) VendorFinder {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) FindByOwner(ctx context.Context, ownerUserID int64) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).First(&vendor, "owner_user_id = ?", ownerUserID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return &vendor, nil
}
