package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/clubhub/internal/apperror"
	"github.com/sakif/clubhub/internal/model"
	"github.com/sakif/clubhub/internal/repository"
)

// compile-time check that *DB implements repository.PostRepository
var _ repository.PostRepository = (*DB)(nil)

// CreatePost inserts a post and sets its assigned id. The author must
// exist; an unknown author surfaces as apperror.ErrNotFound rather than a
// raw FK violation.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, body, author_id) VALUES (?, ?, ?)`,
		post.Title, post.Body, post.AuthorID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return apperror.NotFound("user", post.AuthorID)
		}
		return fmt.Errorf("sqlite: inserting post %q: %w", post.Title, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading post insert id: %w", err)
	}
	post.ID = id
	post.InterestedUsers = []model.UserSummary{}

	return nil
}

// GetPost returns a post with its likers expanded one hop.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, body, author_id FROM posts WHERE id = ?`, id)

	var p model.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Body, &p.AuthorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	interested, err := db.postInterestedUsers(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.InterestedUsers = interested[id]
	if p.InterestedUsers == nil {
		p.InterestedUsers = []model.UserSummary{}
	}

	return &p, nil
}

// ListPosts returns posts matching the filter, likers included. A nil
// filter returns every post.
func (db *DB) ListPosts(ctx context.Context, filter *repository.PostFilter) ([]model.Post, error) {
	query := `SELECT id, title, body, author_id FROM posts`
	where, args := postWhere(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	ids := []int64{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.AuthorID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post: %w", err)
		}
		p.InterestedUsers = []model.UserSummary{}
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	interested, err := db.postInterestedUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if users, ok := interested[posts[i].ID]; ok {
			posts[i].InterestedUsers = users
		}
	}

	return posts, nil
}

// DeletePost removes a post and returns it as it was before deletion. Like
// edges go with it via the FK cascade; the likers themselves are untouched.
func (db *DB) DeletePost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := db.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning post delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing post delete: %w", err)
	}

	return post, nil
}

// postInterestedUsers loads the like edges for the given posts in one
// query, keyed by post id.
func (db *DB) postInterestedUsers(ctx context.Context, postIDs []int64) (map[int64][]model.UserSummary, error) {
	result := make(map[int64][]model.UserSummary)
	if len(postIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(
		`SELECT l.post_id, u.id, u.name, u.email
		 FROM post_likes l JOIN users u ON u.id = l.user_id
		 WHERE l.post_id IN (%s) ORDER BY l.post_id, u.id`,
		placeholders(len(postIDs)))

	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading post likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var u model.UserSummary
		if err := rows.Scan(&postID, &u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post like: %w", err)
		}
		result[postID] = append(result[postID], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating post likes: %w", err)
	}

	return result, nil
}

// postWhere builds the WHERE clause for a post filter.
func postWhere(f *repository.PostFilter) (string, []any) {
	if f == nil {
		return "", nil
	}

	var where []string
	var args []any

	if f.SearchQuery != "" {
		where = append(where,
			"(instr(lower(title), lower(?)) > 0 OR instr(lower(body), lower(?)) > 0)")
		args = append(args, f.SearchQuery, f.SearchQuery)
	}
	if f.AuthorID != 0 {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}

	return strings.Join(where, " AND "), args
}
