package fakeapi

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// DeriveKey stretches a password with Argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the value stored in place of the password.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// CheckPassword reports whether password matches the stored verifier.
func CheckPassword(password string, salt, verifier []byte) bool {
	candidate := MakeVerifier(DeriveKey([]byte(password), salt))
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	b := make([]byte, saltSize)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandHex returns a random hex string encoding size bytes.
func RandHex(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
