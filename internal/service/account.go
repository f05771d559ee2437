// Package service contains the business logic layer. Handlers call
// services; services call repositories. Neither direction knows about
// HTTP or SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/clubhub/internal/apperror"
	"github.com/sakif/clubhub/internal/auth"
	"github.com/sakif/clubhub/internal/model"
	"github.com/sakif/clubhub/internal/repository"
)

// AccountService implements the account lifecycle: registration, login,
// and the session/update token rotation.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger

	// dummyDigest is compared against on login when the email matches no
	// account, so the miss path costs a bcrypt comparison just like the
	// wrong-password path.
	dummyDigest string
}

// NewAccountService creates an AccountService with all dependencies
// injected.
func NewAccountService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) (*AccountService, error) {
	dummy, err := passwords.Hash("clubhub-login-timing-pad")
	if err != nil {
		return nil, fmt.Errorf("service/account: preparing dummy digest: %w", err)
	}

	return &AccountService{
		users:       users,
		passwords:   passwords,
		tokens:      tokens,
		logger:      logger,
		dummyDigest: dummy,
	}, nil
}

// Register creates a new account. The email must not already be in use
// (exact, case-sensitive match). On success the user is persisted with a
// hashed password, freshly issued session credentials, and empty
// association sets.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	digest, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	creds, err := s.tokens.Issue()
	if err != nil {
		return nil, fmt.Errorf("service/account: issuing initial tokens: %w", err)
	}

	user := &model.User{
		Name:           name,
		Email:          email,
		PasswordDigest: digest,
		SessionToken:   creds.SessionToken,
		SessionExpires: creds.SessionExpires,
		UpdateToken:    creds.UpdateToken,
	}

	// The UNIQUE constraint on email is the authority on duplicates; the
	// repository maps a violation to ErrConflict. No pre-check, so two
	// concurrent registrations cannot both succeed.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies the email/password pair and issues fresh session
// credentials, invalidating any previous session.
//
// An unknown email and a wrong password produce the identical
// ErrInvalidCredentials; which of the two happened is logged but never
// surfaced to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		// Burn a bcrypt comparison anyway.
		_ = s.passwords.Verify(s.dummyDigest, password)
		s.logger.Info("login failed: unknown email", slog.String("email", email))
		return nil, apperror.InvalidCredentials()
	}

	if err := s.passwords.Verify(user.PasswordDigest, password); err != nil {
		if errors.Is(err, apperror.ErrCorruptDigest) {
			// A digest we cannot parse is an operational fault, not a bad
			// login; report it as such.
			s.logger.Error("login failed: corrupt digest", slog.Int64("userID", user.ID))
			return nil, err
		}
		s.logger.Info("login failed: wrong password", slog.Int64("userID", user.ID))
		return nil, apperror.InvalidCredentials()
	}

	if err := s.issueAndPersist(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", slog.Int64("userID", user.ID))
	return user, nil
}

// RenewSession rotates the token pair for the user holding the given
// update token. The presented token stops working the instant the new pair
// is persisted, making update tokens single-use.
func (s *AccountService) RenewSession(ctx context.Context, updateToken string) (*model.User, error) {
	user, err := s.users.GetUserByUpdateToken(ctx, updateToken)
	if err != nil {
		return nil, err
	}

	if err := s.issueAndPersist(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("session renewed", slog.Int64("userID", user.ID))
	return user, nil
}

// ValidateSession reports whether the token identifies a live session.
// Expired and unknown tokens are indistinguishable: both yield false.
func (s *AccountService) ValidateSession(ctx context.Context, sessionToken string) bool {
	user, err := s.users.GetUserBySessionToken(ctx, sessionToken)
	if err != nil {
		return false
	}
	return s.tokens.Valid(sessionToken, user.SessionToken, user.SessionExpires)
}

// UserBySessionToken returns the user holding a live session token.
// Used by the auth middleware; failures are uniformly ErrInvalidToken.
func (s *AccountService) UserBySessionToken(ctx context.Context, sessionToken string) (*model.User, error) {
	user, err := s.users.GetUserBySessionToken(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Valid(sessionToken, user.SessionToken, user.SessionExpires) {
		return nil, apperror.InvalidToken()
	}
	return user, nil
}

// issueAndPersist rotates the user's credentials in place.
func (s *AccountService) issueAndPersist(ctx context.Context, user *model.User) error {
	creds, err := s.tokens.Issue()
	if err != nil {
		return fmt.Errorf("service/account: issuing tokens: %w", err)
	}

	if err := s.users.UpdateSessionCredentials(ctx, user.ID, creds); err != nil {
		return err
	}

	user.SessionToken = creds.SessionToken
	user.SessionExpires = creds.SessionExpires
	user.UpdateToken = creds.UpdateToken
	return nil
}
