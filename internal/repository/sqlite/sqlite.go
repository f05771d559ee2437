// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, the pure Go driver).
//
// WAL mode keeps reads concurrent with writes; foreign keys are switched on
// so association edges and authored posts are cascade-deleted by the engine
// itself. Every multi-row mutation runs inside a single transaction, so a
// crash mid-mutation cannot leave a favorite or like edge pointing at a
// deleted row.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB wraps the sql.DB pool and implements repository.ClubRepository,
// UserRepository, and PostRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time, and a ":memory:" database exists
	// per connection. A single pooled connection handles both.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// schema holds the full table layout. CREATE IF NOT EXISTS keeps it safe to
// run on every startup.
//
// Invariants enforced here rather than in Go code:
//   - users.email, users.session_token, users.update_token are UNIQUE
//   - posts.author_id must reference an existing user; deleting the user
//     cascades to their posts
//   - both association tables cascade from either endpoint, and their
//     composite primary keys give favorite/like inserts set semantics
const schema = `
CREATE TABLE IF NOT EXISTS clubs (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	name                 TEXT NOT NULL,
	description          TEXT NOT NULL,
	level                TEXT NOT NULL,
	category             TEXT NOT NULL,
	href                 TEXT,
	application_required INTEGER
);

CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL UNIQUE,
	password_digest TEXT NOT NULL,
	session_token   TEXT UNIQUE,
	session_expires DATETIME,
	update_token    TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS posts (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	title     TEXT NOT NULL,
	body      TEXT NOT NULL DEFAULT '',
	author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS club_favorites (
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	club_id INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, club_id)
);

CREATE TABLE IF NOT EXISTS post_likes (
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, post_id)
);

CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_club_favorites_club_id ON club_favorites(club_id);
CREATE INDEX IF NOT EXISTS idx_post_likes_post_id ON post_likes(post_id);
`

func (db *DB) migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// nullIfEmpty maps "" to NULL so empty tokens never collide with each other
// under the UNIQUE constraints.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
