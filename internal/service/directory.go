package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/clubhub/internal/apperror"
	"github.com/sakif/clubhub/internal/model"
	"github.com/sakif/clubhub/internal/repository"
)

// CreateClubInput holds the fields accepted when creating a club.
// Name, Description, Level, and Category are required; Href defaults to
// null and ApplicationRequired to unspecified.
type CreateClubInput struct {
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Level               string  `json:"level"`
	Category            string  `json:"category"`
	Href                *string `json:"href"`
	ApplicationRequired *bool   `json:"application_required"`
}

// CreatePostInput holds the fields accepted when creating a post.
// Title and AuthorID are required; Body defaults to the empty string.
type CreatePostInput struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	AuthorID int64  `json:"author_id"`
}

// DirectoryService handles clubs, posts, user browsing, and the favorite
// and like relationships.
type DirectoryService struct {
	clubs  repository.ClubRepository
	users  repository.UserRepository
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewDirectoryService creates a DirectoryService.
func NewDirectoryService(
	clubs repository.ClubRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	logger *slog.Logger,
) *DirectoryService {
	return &DirectoryService{
		clubs:  clubs,
		users:  users,
		posts:  posts,
		logger: logger,
	}
}

// CreateClub validates the input and persists a new, ownerless club.
func (s *DirectoryService) CreateClub(ctx context.Context, in CreateClubInput) (*model.Club, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "club name is required")
	}
	if in.Description == "" {
		return nil, apperror.ValidationFailed("description", "club description is required")
	}
	if in.Level == "" {
		return nil, apperror.ValidationFailed("level", "club level is required")
	}
	if in.Category == "" {
		return nil, apperror.ValidationFailed("category", "club category is required")
	}

	club := &model.Club{
		Name:                in.Name,
		Description:         in.Description,
		Level:               in.Level,
		Category:            in.Category,
		Href:                in.Href,
		ApplicationRequired: in.ApplicationRequired,
	}

	if err := s.clubs.CreateClub(ctx, club); err != nil {
		s.logger.Error("failed to create club",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("club created", slog.Int64("id", club.ID), slog.String("name", club.Name))
	return club, nil
}

// GetClub returns one club with relations expanded.
func (s *DirectoryService) GetClub(ctx context.Context, id int64) (*model.Club, error) {
	return s.clubs.GetClub(ctx, id)
}

// ListClubs returns clubs matching the filter; a nil filter returns all.
func (s *DirectoryService) ListClubs(ctx context.Context, filter *repository.ClubFilter) ([]model.Club, error) {
	return s.clubs.ListClubs(ctx, filter)
}

// DeleteClub removes a club, returning it as it was. Members who had
// favorited it keep their accounts; only the edges disappear.
func (s *DirectoryService) DeleteClub(ctx context.Context, id int64) (*model.Club, error) {
	club, err := s.clubs.DeleteClub(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("club deleted", slog.Int64("id", id))
	return club, nil
}

// GetUser returns one user with relations expanded.
func (s *DirectoryService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUser(ctx, id)
}

// ListUsers returns every user.
func (s *DirectoryService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

// DeleteUser removes a user, cascading to their created posts and removing
// them from every favorite and like set.
func (s *DirectoryService) DeleteUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user deleted",
		slog.Int64("id", id),
		slog.Int("cascadedPosts", len(user.CreatedPosts)),
	)
	return user, nil
}

// CreatePost validates the input and persists a new post.
func (s *DirectoryService) CreatePost(ctx context.Context, in CreatePostInput) (*model.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if in.AuthorID == 0 {
		return nil, apperror.ValidationFailed("author_id", "post author is required")
	}

	post := &model.Post{
		Title:    in.Title,
		Body:     in.Body,
		AuthorID: in.AuthorID,
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.Int64("authorID", post.AuthorID),
	)
	return post, nil
}

// GetPost returns one post with relations expanded.
func (s *DirectoryService) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	return s.posts.GetPost(ctx, id)
}

// ListPosts returns posts matching the filter; a nil filter returns all.
func (s *DirectoryService) ListPosts(ctx context.Context, filter *repository.PostFilter) ([]model.Post, error) {
	return s.posts.ListPosts(ctx, filter)
}

// DeletePost removes a post and its like edges.
func (s *DirectoryService) DeletePost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.posts.DeletePost(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("post deleted", slog.Int64("id", id))
	return post, nil
}

// FavoriteClub adds the club to the user's favorites. Favoriting the same
// club twice leaves a single edge.
func (s *DirectoryService) FavoriteClub(ctx context.Context, userID, clubID int64) (*model.User, error) {
	user, err := s.users.AddFavoriteClub(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("club favorited", slog.Int64("userID", userID), slog.Int64("clubID", clubID))
	return user, nil
}

// LikePost adds the post to the user's liked set. A user cannot like their
// own post; liking twice leaves a single edge.
func (s *DirectoryService) LikePost(ctx context.Context, userID, postID int64) (*model.User, error) {
	user, err := s.users.AddLikedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("post liked", slog.Int64("userID", userID), slog.Int64("postID", postID))
	return user, nil
}
