package home

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for home and user persistence.
type Repository interface {
	CreateHome(ctx context.Context, h *Home) error
	GetHome(ctx context.Context, id string) (*Home, error)
	GetHomeByUID(ctx context.Context, uniqueID string) (*Home, error)
	ListHomes(ctx context.Context) ([]Home, error)
	SetConnected(ctx context.Context, id string, connected bool) error
	TouchLastUpdate(ctx context.Context, id string, ts time.Time) error

	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	AddUserToHome(ctx context.Context, homeID, userID string) error
	ListUsersForHome(ctx context.Context, homeID string) ([]User, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed home repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateHome inserts a new home into the database.
func (r *SQLiteRepository) CreateHome(ctx context.Context, h *Home) error {
	const query = `INSERT INTO homes (id, unique_id, org_id, connected)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, h.ID, h.UniqueID, h.OrgID, h.Connected)
	if err != nil {
		return fmt.Errorf("inserting home %s: %w", h.ID, err)
	}
	return nil
}

// GetHome returns a single home by internal ID.
func (r *SQLiteRepository) GetHome(ctx context.Context, id string) (*Home, error) {
	const query = `SELECT id, unique_id, org_id, connected, last_update, created_at, updated_at
		FROM homes WHERE id = ?`
	return scanHome(r.db.QueryRowContext(ctx, query, id))
}

// GetHomeByUID returns a home by its wire identifier. This is the resolve
// step of the ingest path: the homeUID topic segment maps here.
func (r *SQLiteRepository) GetHomeByUID(ctx context.Context, uniqueID string) (*Home, error) {
	const query = `SELECT id, unique_id, org_id, connected, last_update, created_at, updated_at
		FROM homes WHERE unique_id = ?`
	return scanHome(r.db.QueryRowContext(ctx, query, uniqueID))
}

// ListHomes returns all homes ordered by unique ID.
func (r *SQLiteRepository) ListHomes(ctx context.Context) ([]Home, error) {
	const query = `SELECT id, unique_id, org_id, connected, last_update, created_at, updated_at
		FROM homes ORDER BY unique_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying homes: %w", err)
	}
	defer rows.Close()

	var homes []Home
	for rows.Next() {
		h, err := scanHomeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning home row: %w", err)
		}
		homes = append(homes, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating home rows: %w", err)
	}
	return homes, nil
}

// SetConnected updates a home's connectivity flag.
func (r *SQLiteRepository) SetConnected(ctx context.Context, id string, connected bool) error {
	const query = `UPDATE homes SET connected = ?, updated_at = datetime('now') WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, connected, id)
	if err != nil {
		return fmt.Errorf("updating home %s connectivity: %w", id, err)
	}
	return checkHomeAffected(result, id)
}

// TouchLastUpdate stamps the most recent telemetry time for a home.
func (r *SQLiteRepository) TouchLastUpdate(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE homes SET last_update = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, ts.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating home %s last_update: %w", id, err)
	}
	return checkHomeAffected(result, id)
}

// CreateUser inserts a new user into the database.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *User) error {
	attrs := "{}"
	if u.Attributes != nil {
		b, err := json.Marshal(u.Attributes)
		if err == nil {
			attrs = string(b)
		}
	}
	const query = `INSERT INTO users (id, name, email, attributes) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, attrs)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser returns a single user by ID.
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*User, error) {
	const query = `SELECT id, name, email, attributes FROM users WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// AddUserToHome links a user to a home for notification delivery.
func (r *SQLiteRepository) AddUserToHome(ctx context.Context, homeID, userID string) error {
	const query = `INSERT INTO home_users (home_id, user_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, homeID, userID)
	if err != nil {
		return fmt.Errorf("linking user %s to home %s: %w", userID, homeID, err)
	}
	return nil
}

// ListUsersForHome returns all users linked to a home. These are the
// candidate recipients for sensor state-change notifications.
func (r *SQLiteRepository) ListUsersForHome(ctx context.Context, homeID string) ([]User, error) {
	const query = `SELECT u.id, u.name, u.email, u.attributes
		FROM users u
		JOIN home_users hu ON hu.user_id = u.id
		WHERE hu.home_id = ?
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query, homeID)
	if err != nil {
		return nil, fmt.Errorf("querying home %s users: %w", homeID, err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

// scanHome scans a single row into a Home (for QueryRow).
func scanHome(row *sql.Row) (*Home, error) {
	var h Home
	var lastUpdate sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&h.ID, &h.UniqueID, &h.OrgID, &h.Connected, &lastUpdate, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHomeNotFound
		}
		return nil, fmt.Errorf("scanning home: %w", err)
	}

	if lastUpdate.Valid {
		t := parseTime(lastUpdate.String)
		h.LastUpdate = &t
	}
	h.CreatedAt = parseTime(createdAt)
	h.UpdatedAt = parseTime(updatedAt)
	return &h, nil
}

// scanHomeRow scans a home from a Rows cursor.
func scanHomeRow(rows *sql.Rows) (*Home, error) {
	var h Home
	var lastUpdate sql.NullString
	var createdAt, updatedAt string

	err := rows.Scan(&h.ID, &h.UniqueID, &h.OrgID, &h.Connected, &lastUpdate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if lastUpdate.Valid {
		t := parseTime(lastUpdate.String)
		h.LastUpdate = &t
	}
	h.CreatedAt = parseTime(createdAt)
	h.UpdatedAt = parseTime(updatedAt)
	return &h, nil
}

// scanUser scans user columns via the given scan function (works for both
// sql.Row and sql.Rows).
func scanUser(scan func(...any) error) (*User, error) {
	var u User
	var email sql.NullString
	var attrsJSON string

	if err := scan(&u.ID, &u.Name, &email, &attrsJSON); err != nil {
		return nil, err
	}

	if email.Valid {
		u.Email = email.String
	}
	u.Attributes = parseAttributes(attrsJSON)
	return &u, nil
}

// parseAttributes decodes a JSON attribute column, tolerating bad data.
func parseAttributes(s string) map[string]any {
	attrs := make(map[string]any)
	if s == "" {
		return attrs
	}
	if err := json.Unmarshal([]byte(s), &attrs); err != nil {
		return make(map[string]any)
	}
	return attrs
}

// checkHomeAffected converts a zero-rows-affected update into ErrHomeNotFound.
func checkHomeAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for home %s: %w", id, err)
	}
	if n == 0 {
		return ErrHomeNotFound
	}
	return nil
}

// parseTime parses SQLite datetime strings in the formats the driver emits.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
