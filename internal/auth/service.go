package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgauth "github.com/rohanjoshi-dev/bitekart-backend/pkg/auth"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

const minPasswordLength = 8

// LoginInput carries submitted credentials.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput carries a new customer account request.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    *string
	Password string
}

// Session is a minted token plus the profile the client renders after login.
type Session struct {
	Token    string
	UserID   int64
	Name     string
	Email    string
	Role     enums.Role
	VendorID *int64
}

// Service authenticates users and registers customer accounts.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Register(ctx context.Context, input RegisterInput) (*Session, error)
}

type service struct {
	users   UserStore
	vendors VendorFinder
	jwt     config.JWTConfig
	logg    *logger.Logger
}

// Params bundles the auth service dependencies.
type Params struct {
	Users   UserStore
	Vendors VendorFinder
	JWT     config.JWTConfig
	Logger  *logger.Logger
}

// NewService builds an auth service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user store required")
	}
	if params.Vendors == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vendor finder required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "jwt config required")
	}
	return &service{
		users:   params.Users,
		vendors: params.Vendors,
		jwt:     params.JWT,
		logg:    params.Logger,
	}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	session, err := s.mintSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.RecordLogin(ctx, user.ID, time.Now().UTC()); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "recording last login failed")
	}
	return session, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case email == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case len(input.Password) < minPasswordLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Phone:        input.Phone,
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, err
	}

	return s.mintSession(ctx, user)
}

// mintSession resolves the vendor binding for vendor accounts before signing
// the token, since vendor tokens without a vendor id are rejected at mint.
func (s *service) mintSession(ctx context.Context, user *models.User) (*Session, error) {
	var vendorID *int64
	if user.Role == enums.RoleVendor {
		vendor, err := s.vendors.FindByOwner(ctx, user.ID)
		if err != nil {
			if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no vendor bound to this account")
			}
			return nil, err
		}
		vendorID = &vendor.ID
	}

	token, err := pkgauth.MintAccessToken(s.jwt, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		VendorID: vendorID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &Session{
		Token:    token,
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		VendorID: vendorID,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
