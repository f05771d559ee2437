// Package auth provides the credential vault (bcrypt password hashing) and
// the session token manager (opaque random tokens with expiry).
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/clubhub/internal/apperror"
)

// defaultCost is the bcrypt work factor, roughly 250ms per hash on current
// server hardware.
const defaultCost = 12

// PasswordService hashes and verifies passwords with bcrypt.
//
// The cost is injectable so tests can use the bcrypt minimum (4) and avoid
// paying ~250ms per hashing operation.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Not for production use.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output embeds the cost and a freshly random salt, so hashing the same
// password twice yields different digests that both verify.
//
// Passwords longer than 72 bytes are rejected: bcrypt silently truncates at
// 72, and silent truncation would weaken the credential without the caller
// knowing.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(digest), nil
}

// Verify checks a plaintext password against a stored digest. Returns nil
// on match. A mismatch and a match take the same time for a given digest
// (bcrypt compares in constant time), so response timing reveals nothing
// about where the mismatch occurred.
//
// A digest that cannot be parsed at all yields apperror.ErrCorruptDigest.
func (p *PasswordService) Verify(digest, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperror.InvalidCredentials()
	}
	return apperror.CorruptDigest(err)
}
