package telemetry

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the telemetry tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE sensor_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			data TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE TABLE sensor_data_last (
			device_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestRecord_FirstReading(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	prev, err := store.Record(ctx, "d-1", []byte(`{"contact":true}`), time.Now())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if prev != nil {
		t.Errorf("Record() previous = %+v for first reading, want nil", prev)
	}

	latest, err := store.Latest(ctx, "d-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == nil {
		t.Fatal("Latest() = nil after Record()")
	}
	if string(latest.Data) != `{"contact":true}` {
		t.Errorf("Latest().Data = %s, want recorded payload", latest.Data)
	}
}

func TestRecord_ReturnsPrevious(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	t0 := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if _, err := store.Record(ctx, "d-1", []byte(`{"contact":true}`), t0); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	prev, err := store.Record(ctx, "d-1", []byte(`{"contact":false}`), t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if prev == nil {
		t.Fatal("Record() previous = nil, want first payload")
	}
	if string(prev.Data) != `{"contact":true}` {
		t.Errorf("previous.Data = %s, want first payload", prev.Data)
	}
	if !prev.Timestamp.Equal(t0) {
		t.Errorf("previous.Timestamp = %v, want %v", prev.Timestamp, t0)
	}

	latest, err := store.Latest(ctx, "d-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if string(latest.Data) != `{"contact":false}` {
		t.Errorf("Latest().Data = %s, want second payload", latest.Data)
	}
}

func TestRecord_AppendsLog(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		payload := []byte(`{"battery":` + string(rune('0'+i)) + `}`)
		if _, err := store.Record(ctx, "d-1", payload, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	history, err := store.History(ctx, "d-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History() returned %d readings, want 3", len(history))
	}
	// Newest first.
	if string(history[0].Data) != `{"battery":2}` {
		t.Errorf("newest reading = %s, want last recorded", history[0].Data)
	}
}

func TestLatest_UnknownDevice(t *testing.T) {
	store := NewStore(setupTestDB(t))

	latest, err := store.Latest(context.Background(), "d-unseen")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != nil {
		t.Errorf("Latest() = %+v for unknown device, want nil", latest)
	}
}

func TestPruneBefore(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := store.Record(ctx, "d-1", []byte(`{}`), base.AddDate(0, 0, i)); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	pruned, err := store.PruneBefore(ctx, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("PruneBefore() error = %v", err)
	}
	if pruned != 3 {
		t.Errorf("PruneBefore() = %d, want 3", pruned)
	}

	history, err := store.History(ctx, "d-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("History() returned %d readings after prune, want 2", len(history))
	}

	// The latest row survives pruning regardless of age.
	latest, err := store.Latest(ctx, "d-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == nil {
		t.Error("Latest() = nil after prune, want surviving row")
	}
}
