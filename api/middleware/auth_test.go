package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/rohanjoshi-dev/bitekart-backend/pkg/auth"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-secret",
		Issuer:            "bitekart-test",
		ExpirationMinutes: 5,
	}
}

func TestAuthSeedsIdentity(t *testing.T) {
	cfg := authTestConfig()
	vendorID := int64(4)
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   42,
		Role:     enums.RoleVendor,
		VendorID: &vendorID,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	var gotUser, gotVendor int64
	var gotRole enums.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotVendor = VendorIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	Auth(cfg, nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUser != 42 || gotRole != enums.RoleVendor || gotVendor != 4 {
		t.Fatalf("unexpected identity user=%d role=%s vendor=%d", gotUser, gotRole, gotVendor)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()

	Auth(authTestConfig(), nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsForgedToken(t *testing.T) {
	other := authTestConfig()
	other.Secret = "someone-elses-secret"
	token, err := pkgauth.MintAccessToken(other, time.Now(), pkgauth.AccessTokenPayload{
		UserID: 42,
		Role:   enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	Auth(authTestConfig(), nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithIdentity(req.Context(), 42, enums.RoleCustomer, nil))
	w := httptest.NewRecorder()

	RequireRole(enums.RoleAdmin, nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
