package model

import "time"

// User represents a registered account.
//
// Email is the login identifier and is unique across all users. The
// password digest and both tokens are credentials and must never appear
// in a serialized response, hence the `json:"-"` tags. SessionExpires is
// exposed only through SessionCredentials.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"`
	SessionToken   string    `json:"-"`
	SessionExpires time.Time `json:"-"`
	UpdateToken    string    `json:"-"`

	FavoriteClubs []ClubSummary `json:"favorite_clubs"`
	CreatedPosts  []PostSummary `json:"created_posts"`
	LikedPosts    []PostSummary `json:"liked_posts"`
}

// UserSummary is the no-relations view of a User. Credentials are omitted
// from the struct entirely rather than tagged out, so it cannot leak them.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the scalar-only view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// SessionCredentials is the payload returned by register, login, and
// session renewal: everything a client needs to hold a session.
type SessionCredentials struct {
	SessionToken   string    `json:"session_token"`
	SessionExpires time.Time `json:"session_expiration"`
	UpdateToken    string    `json:"update_token"`
}

// Credentials returns the user's current session credentials.
func (u *User) Credentials() SessionCredentials {
	return SessionCredentials{
		SessionToken:   u.SessionToken,
		SessionExpires: u.SessionExpires,
		UpdateToken:    u.UpdateToken,
	}
}
