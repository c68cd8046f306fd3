package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgauth "github.com/rohanjoshi-dev/bitekart-backend/pkg/auth"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

type stubUserStore struct {
	byEmail    map[string]*models.User
	created    []*models.User
	lastLogins map[int64]time.Time
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		byEmail:    map[string]*models.User{},
		lastLogins: map[int64]time.Time{},
	}
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *stubUserStore) Create(_ context.Context, user *models.User) error {
	user.ID = int64(len(s.created)) + 100
	s.created = append(s.created, user)
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserStore) RecordLogin(_ context.Context, userID int64, at time.Time) error {
	s.lastLogins[userID] = at
	return nil
}

type stubVendorFinder struct {
	byOwner map[int64]*models.Vendor
}

func (s *stubVendorFinder) FindByOwner(_ context.Context, ownerUserID int64) (*models.Vendor, error) {
	vendor, ok := s.byOwner[ownerUserID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return vendor, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "bitekart-test",
		ExpirationMinutes: 60,
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return string(hash)
}

func authFixture(t *testing.T) (*stubUserStore, *stubVendorFinder, Service) {
	t.Helper()
	users := newStubUserStore()
	vendors := &stubVendorFinder{byOwner: map[int64]*models.Vendor{}}
	svc, err := NewService(Params{Users: users, Vendors: vendors, JWT: testJWTConfig()})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return users, vendors, svc
}

func TestLoginIssuesCustomerToken(t *testing.T) {
	users, _, svc := authFixture(t)
	users.byEmail["asha@example.com"] = &models.User{
		ID:           7,
		Email:        "asha@example.com",
		PasswordHash: hashPassword(t, "orange-mango"),
		Name:         "Asha",
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}

	session, err := svc.Login(context.Background(), LoginInput{Email: " Asha@Example.com ", Password: "orange-mango"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.UserID != 7 || session.Role != enums.RoleCustomer {
		t.Fatalf("unexpected session %+v", session)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), session.Token)
	if err != nil {
		t.Fatalf("parsing minted token: %v", err)
	}
	if claims.UserID != 7 || claims.Role != enums.RoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, ok := users.lastLogins[7]; !ok {
		t.Fatal("expected last login to be recorded")
	}
}

func TestLoginBindsVendorID(t *testing.T) {
	users, vendors, svc := authFixture(t)
	users.byEmail["ravi@example.com"] = &models.User{
		ID:           9,
		Email:        "ravi@example.com",
		PasswordHash: hashPassword(t, "secret-curry"),
		Name:         "Ravi",
		Role:         enums.RoleVendor,
		IsActive:     true,
	}
	vendors.byOwner[9] = &models.Vendor{ID: 3, OwnerUserID: 9, Name: "Ravi Kitchen"}

	session, err := svc.Login(context.Background(), LoginInput{Email: "ravi@example.com", Password: "secret-curry"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.VendorID == nil || *session.VendorID != 3 {
		t.Fatalf("expected vendor id 3, got %v", session.VendorID)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	users, _, svc := authFixture(t)
	users.byEmail["asha@example.com"] = &models.User{
		ID:           7,
		Email:        "asha@example.com",
		PasswordHash: hashPassword(t, "orange-mango"),
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "asha@example.com", Password: "wrong"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsUnknownEmailWithSameError(t *testing.T) {
	_, _, svc := authFixture(t)

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if coded.Message() != "invalid credentials" {
		t.Fatalf("unknown email must not be distinguishable, got %q", coded.Message())
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	users, _, svc := authFixture(t)
	users.byEmail["asha@example.com"] = &models.User{
		ID:           7,
		Email:        "asha@example.com",
		PasswordHash: hashPassword(t, "orange-mango"),
		Role:         enums.RoleCustomer,
		IsActive:     false,
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "asha@example.com", Password: "orange-mango"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	users, _, svc := authFixture(t)

	session, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Meera",
		Email:    "Meera@Example.com",
		Password: "long-enough-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(users.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(users.created))
	}
	created := users.created[0]
	if created.Email != "meera@example.com" || created.Role != enums.RoleCustomer {
		t.Fatalf("unexpected created user %+v", created)
	}
	if created.PasswordHash == "long-enough-pass" {
		t.Fatal("password must be hashed")
	}
	if session.Token == "" {
		t.Fatal("expected a minted token")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, _, svc := authFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Meera",
		Email:    "meera@example.com",
		Password: "short",
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
