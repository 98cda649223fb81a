package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromToken returns the exp claim of a JWT access token without
// verifying its signature. Opaque or malformed tokens yield the zero time,
// meaning the lifetime is unknown.
func ExpiryFromToken(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
