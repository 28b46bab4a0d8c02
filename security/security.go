// Package security provides password hashing and token helpers shared by
// the services the bootstrap wires up.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Static errors for the security package
var (
	ErrEmptyPassword    = errors.New("password is empty")
	ErrPasswordMismatch = errors.New("password does not match")
	ErrInvalidTokenSize = errors.New("token size must be positive")
)

// Security hashes passwords with bcrypt at a fixed cost.
type Security struct {
	cost int
}

// New creates a Security using cost, or bcrypt.DefaultCost when cost is
// out of range.
func New(cost int) *Security {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Security{cost: cost}
}

// Cost returns the bcrypt cost.
func (s *Security) Cost() int { return s.cost }

// HashPassword returns the bcrypt hash of password.
func (s *Security) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a hash from HashPassword.
func (s *Security) CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	if err != nil {
		return fmt.Errorf("check password: %w", err)
	}
	return nil
}

// Token returns size random bytes, hex encoded.
func (s *Security) Token(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidTokenSize, size)
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Equal compares two secrets in constant time.
func (s *Security) Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
