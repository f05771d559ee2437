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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a user and sets its assigned id. A duplicate email
// surfaces as apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	var expires any
	if !user.SessionExpires.IsZero() {
		expires = user.SessionExpires
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (name, email, password_digest, session_token, session_expires, update_token)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordDigest,
		nullIfEmpty(user.SessionToken), expires, nullIfEmpty(user.UpdateToken),
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict(fmt.Sprintf("an account with email %q already exists", user.Email))
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user insert id: %w", err)
	}
	user.ID = id
	user.FavoriteClubs = []model.ClubSummary{}
	user.CreatedPosts = []model.PostSummary{}
	user.LikedPosts = []model.PostSummary{}

	return nil
}

// GetUser returns a user with favorite clubs, created posts, and liked
// posts expanded one hop.
func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := db.getUserRow(ctx, `id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	if err := db.loadUserRelations(ctx, []*model.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every user, relations included.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, email, password_digest, session_token, session_expires, update_token
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	ptrs := make([]*model.User, len(users))
	for i := range users {
		ptrs[i] = &users[i]
	}
	if err := db.loadUserRelations(ctx, ptrs); err != nil {
		return nil, err
	}

	return users, nil
}

// DeleteUser removes a user and returns them as they were before deletion.
// The FK cascades delete the user's authored posts (and those posts' like
// edges) and strip the user from every favorite and like set, all inside
// one transaction. Clubs and other users are never touched.
func (db *DB) DeleteUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning user delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing user delete: %w", err)
	}

	return user, nil
}

// GetUserByEmail looks up a user by login identifier (exact,
// case-sensitive match). Relations are not loaded; the auth paths that use
// these lookups only need credentials.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := db.getUserRow(ctx, `email = ?`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// GetUserBySessionToken looks up the user holding the given session token.
func (db *DB) GetUserBySessionToken(ctx context.Context, token string) (*model.User, error) {
	return db.getUserByToken(ctx, `session_token`, token)
}

// GetUserByUpdateToken looks up the user holding the given update token.
func (db *DB) GetUserByUpdateToken(ctx context.Context, token string) (*model.User, error) {
	return db.getUserByToken(ctx, `update_token`, token)
}

func (db *DB) getUserByToken(ctx context.Context, column, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.InvalidToken()
	}
	user, err := db.getUserRow(ctx, column+` = ?`, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.InvalidToken()
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}
	return user, nil
}

// UpdateSessionCredentials overwrites the user's token pair and expiry.
// The old tokens stop resolving the moment this commits.
func (db *DB) UpdateSessionCredentials(ctx context.Context, userID int64, creds model.SessionCredentials) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET session_token = ?, session_expires = ?, update_token = ? WHERE id = ?`,
		nullIfEmpty(creds.SessionToken), creds.SessionExpires, nullIfEmpty(creds.UpdateToken), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating session for user %d: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading session update result: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

// AddFavoriteClub records that the user favorited the club. Adding the
// same favorite twice is a no-op (composite primary key).
func (db *DB) AddFavoriteClub(ctx context.Context, userID, clubID int64) (*model.User, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning favorite: %w", err)
	}
	defer tx.Rollback()

	if err := rowExists(ctx, tx, `users`, userID); err != nil {
		return nil, err
	}
	if err := rowExists(ctx, tx, `clubs`, clubID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO club_favorites (user_id, club_id) VALUES (?, ?)`,
		userID, clubID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: inserting favorite (%d, %d): %w", userID, clubID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing favorite: %w", err)
	}

	return db.GetUser(ctx, userID)
}

// AddLikedPost records that the user liked the post. Liking your own post
// is forbidden; liking the same post twice is a no-op.
func (db *DB) AddLikedPost(ctx context.Context, userID, postID int64) (*model.User, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning like: %w", err)
	}
	defer tx.Rollback()

	if err := rowExists(ctx, tx, `users`, userID); err != nil {
		return nil, err
	}

	var authorID int64
	err = tx.QueryRowContext(ctx, `SELECT author_id FROM posts WHERE id = ?`, postID).Scan(&authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", postID)
		}
		return nil, fmt.Errorf("sqlite: getting post %d author: %w", postID, err)
	}
	if authorID == userID {
		return nil, apperror.Forbidden("users cannot like their own posts")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_likes (user_id, post_id) VALUES (?, ?)`,
		userID, postID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: inserting like (%d, %d): %w", userID, postID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing like: %w", err)
	}

	return db.GetUser(ctx, userID)
}

// getUserRow fetches one user's scalar columns by an arbitrary predicate.
// Returns sql.ErrNoRows unmapped; callers choose the apperror.
func (db *DB) getUserRow(ctx context.Context, predicate string, arg any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_digest, session_token, session_expires, update_token
		 FROM users WHERE `+predicate, arg)

	var u model.User
	if err := scanUser(row, &u); err != nil {
		return nil, err
	}
	u.FavoriteClubs = []model.ClubSummary{}
	u.CreatedPosts = []model.PostSummary{}
	u.LikedPosts = []model.PostSummary{}
	return &u, nil
}

func scanUser(row scanner, u *model.User) error {
	var sessionToken, updateToken sql.NullString
	var expires sql.NullTime
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordDigest,
		&sessionToken, &expires, &updateToken); err != nil {
		return err
	}
	u.SessionToken = sessionToken.String
	u.UpdateToken = updateToken.String
	if expires.Valid {
		u.SessionExpires = expires.Time
	}
	return nil
}

// loadUserRelations fills FavoriteClubs, CreatedPosts, and LikedPosts for
// the given users with one query per relation.
func (db *DB) loadUserRelations(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]int64, len(users))
	args := make([]any, len(users))
	byID := make(map[int64]*model.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		args[i] = u.ID
		byID[u.ID] = u
		u.FavoriteClubs = []model.ClubSummary{}
		u.CreatedPosts = []model.PostSummary{}
		u.LikedPosts = []model.PostSummary{}
	}
	in := placeholders(len(ids))

	// Favorite clubs.
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT f.user_id, c.id, c.name, c.description, c.level, c.category, c.href, c.application_required
		 FROM club_favorites f JOIN clubs c ON c.id = f.club_id
		 WHERE f.user_id IN (%s) ORDER BY f.user_id, c.id`, in), args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading favorite clubs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		var c model.ClubSummary
		var href sql.NullString
		var appRequired sql.NullBool
		if err := rows.Scan(&userID, &c.ID, &c.Name, &c.Description, &c.Level, &c.Category, &href, &appRequired); err != nil {
			return fmt.Errorf("sqlite: scanning favorite club: %w", err)
		}
		if href.Valid {
			c.Href = &href.String
		}
		if appRequired.Valid {
			c.ApplicationRequired = &appRequired.Bool
		}
		byID[userID].FavoriteClubs = append(byID[userID].FavoriteClubs, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating favorite clubs: %w", err)
	}

	// Created posts.
	rows, err = db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, title, body, author_id FROM posts
		 WHERE author_id IN (%s) ORDER BY author_id, id`, in), args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading created posts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p model.PostSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.AuthorID); err != nil {
			return fmt.Errorf("sqlite: scanning created post: %w", err)
		}
		byID[p.AuthorID].CreatedPosts = append(byID[p.AuthorID].CreatedPosts, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating created posts: %w", err)
	}

	// Liked posts.
	rows, err = db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT l.user_id, p.id, p.title, p.body, p.author_id
		 FROM post_likes l JOIN posts p ON p.id = l.post_id
		 WHERE l.user_id IN (%s) ORDER BY l.user_id, p.id`, in), args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading liked posts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		var p model.PostSummary
		if err := rows.Scan(&userID, &p.ID, &p.Title, &p.Body, &p.AuthorID); err != nil {
			return fmt.Errorf("sqlite: scanning liked post: %w", err)
		}
		byID[userID].LikedPosts = append(byID[userID].LikedPosts, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating liked posts: %w", err)
	}

	return nil
}

// rowExists checks that a row with the given id exists in the table.
func rowExists(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table), id).Scan(&one)
	if err == sql.ErrNoRows {
		// "users" → "user" for the error message
		return apperror.NotFound(strings.TrimSuffix(table, "s"), id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: checking %s %d: %w", table, id, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column. The sqlite driver exposes this only through the error
// text.
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
