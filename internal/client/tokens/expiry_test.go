package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryFromToken(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString([]byte("any-key"))
	require.NoError(t, err)

	assert.True(t, exp.Equal(ExpiryFromToken(signed)))
	assert.True(t, ExpiryFromToken(noExp).IsZero())
	assert.True(t, ExpiryFromToken("opaque-token").IsZero())
	assert.True(t, ExpiryFromToken("").IsZero())
}
