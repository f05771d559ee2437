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

// compile-time check that *DB implements repository.ClubRepository
var _ repository.ClubRepository = (*DB)(nil)

// CreateClub inserts a club and sets its assigned id.
func (db *DB) CreateClub(ctx context.Context, club *model.Club) error {
	var appRequired any
	if club.ApplicationRequired != nil {
		appRequired = *club.ApplicationRequired
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO clubs (name, description, level, category, href, application_required)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		club.Name, club.Description, club.Level, club.Category, club.Href, appRequired,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting club %q: %w", club.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading club insert id: %w", err)
	}
	club.ID = id
	club.InterestedUsers = []model.UserSummary{}

	return nil
}

// GetClub returns a club with its interested users expanded one hop.
func (db *DB) GetClub(ctx context.Context, id int64) (*model.Club, error) {
	club, err := db.getClubRow(ctx, id)
	if err != nil {
		return nil, err
	}

	interested, err := db.clubInterestedUsers(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	club.InterestedUsers = interested[id]
	if club.InterestedUsers == nil {
		club.InterestedUsers = []model.UserSummary{}
	}

	return club, nil
}

// ListClubs returns clubs matching the filter, relations included. A nil
// filter returns every club.
func (db *DB) ListClubs(ctx context.Context, filter *repository.ClubFilter) ([]model.Club, error) {
	query := `SELECT id, name, description, level, category, href, application_required FROM clubs`
	where, args := clubWhere(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing clubs: %w", err)
	}
	defer rows.Close()

	clubs := []model.Club{}
	ids := []int64{}
	for rows.Next() {
		var c model.Club
		if err := scanClub(rows, &c); err != nil {
			return nil, err
		}
		c.InterestedUsers = []model.UserSummary{}
		clubs = append(clubs, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating clubs: %w", err)
	}

	interested, err := db.clubInterestedUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range clubs {
		if users, ok := interested[clubs[i].ID]; ok {
			clubs[i].InterestedUsers = users
		}
	}

	return clubs, nil
}

// DeleteClub removes a club and returns it as it was before deletion.
// Favorite edges pointing at the club are removed by the FK cascade in the
// same transaction; users who favorited it are untouched.
func (db *DB) DeleteClub(ctx context.Context, id int64) (*model.Club, error) {
	club, err := db.GetClub(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning club delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM clubs WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: deleting club %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing club delete: %w", err)
	}

	return club, nil
}

// getClubRow fetches the scalar columns of one club.
func (db *DB) getClubRow(ctx context.Context, id int64) (*model.Club, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, level, category, href, application_required
		 FROM clubs WHERE id = ?`, id)

	var c model.Club
	if err := scanClub(row, &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("club", id)
		}
		return nil, fmt.Errorf("sqlite: getting club %d: %w", id, err)
	}
	return &c, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanClub(row scanner, c *model.Club) error {
	var href sql.NullString
	var appRequired sql.NullBool
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Level, &c.Category, &href, &appRequired); err != nil {
		return err
	}
	if href.Valid {
		c.Href = &href.String
	}
	if appRequired.Valid {
		c.ApplicationRequired = &appRequired.Bool
	}
	return nil
}

// clubInterestedUsers loads the favorite edges for the given clubs in one
// query, keyed by club id.
func (db *DB) clubInterestedUsers(ctx context.Context, clubIDs []int64) (map[int64][]model.UserSummary, error) {
	result := make(map[int64][]model.UserSummary)
	if len(clubIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(
		`SELECT f.club_id, u.id, u.name, u.email
		 FROM club_favorites f JOIN users u ON u.id = f.user_id
		 WHERE f.club_id IN (%s) ORDER BY f.club_id, u.id`,
		placeholders(len(clubIDs)))

	args := make([]any, len(clubIDs))
	for i, id := range clubIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading club favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var clubID int64
		var u model.UserSummary
		if err := rows.Scan(&clubID, &u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("sqlite: scanning club favorite: %w", err)
		}
		result[clubID] = append(result[clubID], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating club favorites: %w", err)
	}

	return result, nil
}

// clubWhere builds the WHERE clause for a club filter. Filters AND
// together; substring search uses instr on lowered columns so no LIKE
// escaping is needed.
func clubWhere(f *repository.ClubFilter) (string, []any) {
	if f == nil {
		return "", nil
	}

	var where []string
	var args []any

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Level != "" {
		where = append(where, "level = ?")
		args = append(args, f.Level)
	}
	if f.SearchQuery != "" {
		where = append(where,
			"(instr(lower(name), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0 OR instr(lower(category), lower(?)) > 0)")
		args = append(args, f.SearchQuery, f.SearchQuery, f.SearchQuery)
	}
	if f.ApplicationRequired != nil {
		// Tri-state: a club with an unspecified value matches either filter.
		where = append(where, "(application_required = ? OR application_required IS NULL)")
		args = append(args, *f.ApplicationRequired)
	}

	return strings.Join(where, " AND "), args
}

// placeholders returns "?, ?, ..." with n slots.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
