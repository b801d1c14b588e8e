package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Reading is one stored telemetry payload for a device.
type Reading struct {
	DeviceID  string
	Data      []byte
	Timestamp time.Time
}

// Store persists telemetry readings in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a telemetry store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends a reading to the sensor_data log and upserts the
// per-device latest row. It returns the previous latest reading, or nil
// when this is the first reading for the device.
//
// The append and the upsert run in one transaction so the log and the
// latest row cannot diverge.
func (s *Store) Record(ctx context.Context, deviceID string, data []byte, ts time.Time) (*Reading, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning telemetry transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	prev, err := latestInTx(ctx, tx, deviceID)
	if err != nil {
		return nil, err
	}

	tsStr := ts.UTC().Format(time.RFC3339)

	const appendQuery = `INSERT INTO sensor_data (device_id, data, timestamp) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, appendQuery, deviceID, string(data), tsStr); err != nil {
		return nil, fmt.Errorf("appending reading for %s: %w", deviceID, err)
	}

	const upsertQuery = `INSERT INTO sensor_data_last (device_id, data, timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			data = excluded.data,
			timestamp = excluded.timestamp`
	if _, err := tx.ExecContext(ctx, upsertQuery, deviceID, string(data), tsStr); err != nil {
		return nil, fmt.Errorf("upserting latest reading for %s: %w", deviceID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing telemetry transaction: %w", err)
	}
	return prev, nil
}

// Latest returns the most recent reading for a device, or nil when the
// device has never reported.
func (s *Store) Latest(ctx context.Context, deviceID string) (*Reading, error) {
	const query = `SELECT data, timestamp FROM sensor_data_last WHERE device_id = ?`
	return scanReading(s.db.QueryRowContext(ctx, query, deviceID), deviceID)
}

// History returns up to limit readings for a device, newest first.
func (s *Store) History(ctx context.Context, deviceID string, limit int) ([]Reading, error) {
	const query = `SELECT data, timestamp FROM sensor_data
		WHERE device_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", deviceID, err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var data, tsStr string
		if err := rows.Scan(&data, &tsStr); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		readings = append(readings, Reading{
			DeviceID:  deviceID,
			Data:      []byte(data),
			Timestamp: parseTimestamp(tsStr),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return readings, nil
}

// PruneBefore deletes log rows older than the cutoff and returns the
// number removed. The latest-row table is never pruned.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sensor_data WHERE timestamp < ?`
	result, err := s.db.ExecContext(ctx, query, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("pruning sensor data: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

// latestInTx reads the latest reading inside an open transaction.
func latestInTx(ctx context.Context, tx *sql.Tx, deviceID string) (*Reading, error) {
	const query = `SELECT data, timestamp FROM sensor_data_last WHERE device_id = ?`
	return scanReading(tx.QueryRowContext(ctx, query, deviceID), deviceID)
}

// scanReading scans a latest-row lookup; a missing row yields nil, nil.
func scanReading(row *sql.Row, deviceID string) (*Reading, error) {
	var data, tsStr string
	err := row.Scan(&data, &tsStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning reading for %s: %w", deviceID, err)
	}
	return &Reading{
		DeviceID:  deviceID,
		Data:      []byte(data),
		Timestamp: parseTimestamp(tsStr),
	}, nil
}

// parseTimestamp parses stored RFC 3339 timestamps.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
