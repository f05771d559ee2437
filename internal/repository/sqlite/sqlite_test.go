package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/clubhub/internal/model"
)

// newTestDB returns a fresh in-memory database, destroyed when the test
// finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestClub(t *testing.T, db *DB, name, level, category string) *model.Club {
	t.Helper()
	club := &model.Club{
		Name:        name,
		Description: name + " description",
		Level:       level,
		Category:    category,
	}
	if err := db.CreateClub(context.Background(), club); err != nil {
		t.Fatalf("failed to create test club: %v", err)
	}
	return club
}

func createTestUser(t *testing.T, db *DB, name, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:           name,
		Email:          email,
		PasswordDigest: "$2a$04$test-digest-placeholder",
		SessionToken:   "session-" + email,
		UpdateToken:    "update-" + email,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, db *DB, title string, authorID int64) *model.Post {
	t.Helper()
	post := &model.Post{
		Title:    title,
		Body:     title + " body",
		AuthorID: authorID,
	}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}
