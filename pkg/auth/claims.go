package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   int64
	Role     enums.Role
	VendorID *int64
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   int64      `json:"user_id"`
	Role     enums.Role `json:"role"`
	VendorID *int64     `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}
