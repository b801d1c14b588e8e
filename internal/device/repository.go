package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	Get(ctx context.Context, id string) (*Device, error)
	GetByUID(ctx context.Context, orgID, uniqueID string) (*Device, error)
	ListByHome(ctx context.Context, homeID string) ([]Device, error)
	AssignToHome(ctx context.Context, id, homeID string) error
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) error

	// RegisterDiscovered upserts a device reported by a gateway's bridge
	// discovery payload. Existing devices keep their home assignment;
	// metadata (name, model, type, attributes) is refreshed.
	RegisterDiscovered(ctx context.Context, orgID, homeID string, d *Discovered, newID string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, unique_id, org_id, home_id, name, model, type, attributes, disabled, created_at, updated_at`

// Create inserts a new device into the database.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	const query = `INSERT INTO devices (id, unique_id, org_id, home_id, name, model, type, attributes, disabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.UniqueID, d.OrgID, nullStr(d.HomeID), d.Name, d.Model, d.Type,
		marshalAttributes(d.Attributes), d.Disabled)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateDevice, d.OrgID, d.UniqueID)
		}
		return fmt.Errorf("inserting device %s: %w", d.ID, err)
	}
	return nil
}

// Get returns a single device by internal ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`
	return scanDevice(r.db.QueryRowContext(ctx, query, id).Scan, true)
}

// GetByUID returns a device by its wire identifier within an organisation.
// This is the resolve step of the ingest path: the deviceUID topic segment
// maps here once the home's organisation is known.
func (r *SQLiteRepository) GetByUID(ctx context.Context, orgID, uniqueID string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE org_id = ? AND unique_id = ?`
	return scanDevice(r.db.QueryRowContext(ctx, query, orgID, uniqueID).Scan, true)
}

// ListByHome returns all devices assigned to a home, ordered by unique ID.
func (r *SQLiteRepository) ListByHome(ctx context.Context, homeID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE home_id = ? ORDER BY unique_id`
	rows, err := r.db.QueryContext(ctx, query, homeID)
	if err != nil {
		return nil, fmt.Errorf("querying home %s devices: %w", homeID, err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan, false)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// AssignToHome links a device to a home.
func (r *SQLiteRepository) AssignToHome(ctx context.Context, id, homeID string) error {
	const query = `UPDATE devices SET home_id = ?, updated_at = datetime('now') WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, homeID, id)
	if err != nil {
		return fmt.Errorf("assigning device %s to home %s: %w", id, homeID, err)
	}
	return checkDeviceAffected(result, id)
}

// Update replaces a device's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	const query = `UPDATE devices
		SET name = ?, model = ?, type = ?, attributes = ?, disabled = ?, updated_at = datetime('now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		d.Name, d.Model, d.Type, marshalAttributes(d.Attributes), d.Disabled, d.ID)
	if err != nil {
		return fmt.Errorf("updating device %s: %w", d.ID, err)
	}
	return checkDeviceAffected(result, d.ID)
}

// Delete removes a device.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM devices WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	return checkDeviceAffected(result, id)
}

// RegisterDiscovered upserts a discovered device. newID is used only when
// the device is not yet known; an existing row keeps its ID, home, and
// disabled flag. New rows start disabled until an operator enables them.
func (r *SQLiteRepository) RegisterDiscovered(ctx context.Context, orgID, homeID string, d *Discovered, newID string) error {
	const query = `INSERT INTO devices (id, unique_id, org_id, home_id, name, model, type, attributes, disabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (org_id, unique_id) DO UPDATE SET
			name = excluded.name,
			model = excluded.model,
			type = excluded.type,
			attributes = excluded.attributes,
			updated_at = datetime('now')`
	attrs := d.Attributes
	if d.Address != "" {
		attrs = make(Attributes, len(d.Attributes)+1)
		for k, v := range d.Attributes {
			attrs[k] = v
		}
		attrs["ieee_address"] = d.Address
	}
	_, err := r.db.ExecContext(ctx, query,
		newID, d.Name, orgID, homeID, d.Name, d.Model, d.Type,
		marshalAttributes(attrs))
	if err != nil {
		return fmt.Errorf("registering discovered device %s: %w", d.Name, err)
	}
	return nil
}

// scanDevice scans device columns via the given scan function (works for
// both sql.Row and sql.Rows). mapNoRows selects ErrDeviceNotFound mapping
// for single-row lookups.
func scanDevice(scan func(...any) error, mapNoRows bool) (*Device, error) {
	var d Device
	var homeID sql.NullString
	var attrsJSON string
	var createdAt, updatedAt string

	err := scan(&d.ID, &d.UniqueID, &d.OrgID, &homeID, &d.Name, &d.Model, &d.Type,
		&attrsJSON, &d.Disabled, &createdAt, &updatedAt)
	if err != nil {
		if mapNoRows && errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	if homeID.Valid {
		d.HomeID = &homeID.String
	}
	d.Attributes = parseAttributes(attrsJSON)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// marshalAttributes encodes device attributes for storage.
func marshalAttributes(a Attributes) string {
	if a == nil {
		return "{}"
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// parseAttributes decodes a JSON attribute column, tolerating bad data.
func parseAttributes(s string) Attributes {
	attrs := make(Attributes)
	if s == "" {
		return attrs
	}
	if err := json.Unmarshal([]byte(s), &attrs); err != nil {
		return make(Attributes)
	}
	return attrs
}

// nullStr converts a *string to a sql.NullString for nullable columns.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// checkDeviceAffected converts a zero-rows-affected update into ErrDeviceNotFound.
func checkDeviceAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for device %s: %w", id, err)
	}
	if n == 0 {
		return ErrDeviceNotFound
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

// isUniqueViolation reports whether an error is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
