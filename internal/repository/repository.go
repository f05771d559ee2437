// Package repository defines the storage interfaces consumed by the service
// layer. The sqlite subpackage provides the concrete implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/clubhub/internal/model"
)

// ClubFilter narrows a club listing. Zero-value fields impose no
// constraint; a nil *ClubFilter returns every club.
//
// SearchQuery is a case-insensitive substring match against name,
// description, or category. ApplicationRequired is tri-state: when set, a
// club matches if its own value equals the filter or is unspecified.
type ClubFilter struct {
	Category            string
	SearchQuery         string
	Level               string
	ApplicationRequired *bool
}

// PostFilter narrows a post listing. SearchQuery is a case-insensitive
// substring match against title or body; AuthorID is an exact match when
// non-zero.
type PostFilter struct {
	SearchQuery string
	AuthorID    int64
}

type ClubRepository interface {
	CreateClub(ctx context.Context, club *model.Club) error
	GetClub(ctx context.Context, id int64) (*model.Club, error)
	ListClubs(ctx context.Context, filter *ClubFilter) ([]model.Club, error)
	DeleteClub(ctx context.Context, id int64) (*model.Club, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) (*model.User, error)

	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserBySessionToken(ctx context.Context, token string) (*model.User, error)
	GetUserByUpdateToken(ctx context.Context, token string) (*model.User, error)
	UpdateSessionCredentials(ctx context.Context, userID int64, creds model.SessionCredentials) error

	AddFavoriteClub(ctx context.Context, userID, clubID int64) (*model.User, error)
	AddLikedPost(ctx context.Context, userID, postID int64) (*model.User, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, filter *PostFilter) ([]model.Post, error)
	DeletePost(ctx context.Context, id int64) (*model.Post, error)
}
