package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/clubhub/internal/model"
)

// contextKey is unexported so only this package can put or read the
// session user in a request context.
type contextKey string

const userKey contextKey = "sessionUser"

// SessionStore resolves a session token to its user. Implemented by
// service.AccountService.
type SessionStore interface {
	UserBySessionToken(ctx context.Context, sessionToken string) (*model.User, error)
}

// RequireSession enforces a valid session on protected routes.
//
// The token is presented as "Authorization: Bearer <session_token>". A
// missing, unknown, or expired token yields the same 401; callers learn
// nothing about which check failed.
func RequireSession(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			user, err := sessions.UserBySessionToken(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user placed in the context
// by RequireSession. ok is false on unauthenticated requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"valid session token required"}`))
}
