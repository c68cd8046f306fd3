package middleware

import (
	"context"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxVendorID contextKey = "vendor_id"
)

func UserIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(int64); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// VendorIDFromContext returns the vendor bound to a vendor token, or 0.
func VendorIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxVendorID).(int64); ok {
		return v
	}
	return 0
}

// WithIdentity seeds the request context with the authenticated actor. Used
// by the auth middleware and by controller tests.
func WithIdentity(ctx context.Context, userID int64, role enums.Role, vendorID *int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if vendorID != nil {
		ctx = context.WithValue(ctx, ctxVendorID, *vendorID)
	}
	return ctx
}
