package fakeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassword(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, saltSize)

	verifier := MakeVerifier(DeriveKey([]byte("s3cret"), salt))

	assert.True(t, CheckPassword("s3cret", salt, verifier))
	assert.False(t, CheckPassword("S3cret", salt, verifier))

	other, err := NewSalt()
	require.NoError(t, err)
	assert.False(t, CheckPassword("s3cret", other, verifier))
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := DeriveKey([]byte("pw"), salt)
	b := DeriveKey([]byte("pw"), salt)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestRandHex(t *testing.T) {
	a, err := RandHex(16)
	require.NoError(t, err)
	b, err := RandHex(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
