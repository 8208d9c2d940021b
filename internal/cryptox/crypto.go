// Package cryptox wraps the hashing primitives used for credentials.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/bizdash/bizsync/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
}

// CheckPassword compares password against a bcrypt hash. A mismatch is
// reported as common.ErrorUnauthorized.
func CheckPassword(hash, password []byte) error {
	err := bcrypt.CompareHashAndPassword(hash, password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrorUnauthorized
	}
	return err
}

// HashToken returns the hex SHA-256 of an opaque token, for storing refresh
// tokens without keeping them in clear.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
