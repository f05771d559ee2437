package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sakif/clubhub/internal/model"
)

// SessionTTL is how long a freshly issued session token remains valid.
const SessionTTL = 24 * time.Hour

// tokenBytes is the entropy per token: 24 bytes = 192 bits, above the
// 128-bit unguessability floor.
const tokenBytes = 24

// TokenService issues session credentials.
//
// The clock is injectable so expiry behaviour can be tested without
// sleeping; NewTokenService wires the real clock.
type TokenService struct {
	now func() time.Time
}

// NewTokenService creates a TokenService backed by the system clock.
func NewTokenService() *TokenService {
	return &TokenService{now: time.Now}
}

// NewTokenServiceWithClock creates a TokenService with a custom clock.
// Used by tests to control expiry.
func NewTokenServiceWithClock(now func() time.Time) *TokenService {
	return &TokenService{now: now}
}

// Issue generates a fresh session token / update token pair expiring
// SessionTTL from now. The two tokens are independently random; storing
// them overwrites (and thereby invalidates) whatever the user held before.
func (s *TokenService) Issue() (model.SessionCredentials, error) {
	session, err := newToken()
	if err != nil {
		return model.SessionCredentials{}, err
	}
	update, err := newToken()
	if err != nil {
		return model.SessionCredentials{}, err
	}

	return model.SessionCredentials{
		SessionToken:   session,
		SessionExpires: s.now().Add(SessionTTL),
		UpdateToken:    update,
	}, nil
}

// Valid reports whether the presented token matches the stored session
// token and the session has not expired. A wrong token and an expired one
// are indistinguishable to the caller: both comparisons always run and the
// result is a single bool.
func (s *TokenService) Valid(presented, stored string, expires time.Time) bool {
	match := subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
	live := s.now().Before(expires)
	return match && live && stored != ""
}

// newToken returns a cryptographically random, URL-safe token.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
