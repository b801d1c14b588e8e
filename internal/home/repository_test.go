package home

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the topology tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE homes (
			id TEXT PRIMARY KEY,
			unique_id TEXT NOT NULL UNIQUE,
			org_id TEXT NOT NULL,
			connected INTEGER NOT NULL DEFAULT 0,
			last_update TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			attributes TEXT NOT NULL DEFAULT '{}'
		);

		CREATE TABLE home_users (
			home_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			PRIMARY KEY (home_id, user_id)
		);`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestCreateAndGetHome(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	h := &Home{ID: "h-1", UniqueID: "home-7f", OrgID: "org-3"}
	if err := repo.CreateHome(ctx, h); err != nil {
		t.Fatalf("CreateHome() error = %v", err)
	}

	got, err := repo.GetHome(ctx, "h-1")
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if got.UniqueID != "home-7f" {
		t.Errorf("UniqueID = %q, want %q", got.UniqueID, "home-7f")
	}
	if got.OrgID != "org-3" {
		t.Errorf("OrgID = %q, want %q", got.OrgID, "org-3")
	}
	if got.Connected {
		t.Error("Connected = true for new home, want false")
	}
	if got.LastUpdate != nil {
		t.Errorf("LastUpdate = %v for new home, want nil", got.LastUpdate)
	}
}

func TestGetHomeByUID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.CreateHome(ctx, &Home{ID: "h-1", UniqueID: "home-7f", OrgID: "org-3"}); err != nil {
		t.Fatalf("CreateHome() error = %v", err)
	}

	got, err := repo.GetHomeByUID(ctx, "home-7f")
	if err != nil {
		t.Fatalf("GetHomeByUID() error = %v", err)
	}
	if got.ID != "h-1" {
		t.Errorf("ID = %q, want %q", got.ID, "h-1")
	}
}

func TestGetHome_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.GetHome(ctx, "missing")
	if !errors.Is(err, ErrHomeNotFound) {
		t.Errorf("GetHome() error = %v, want ErrHomeNotFound", err)
	}

	_, err = repo.GetHomeByUID(ctx, "missing")
	if !errors.Is(err, ErrHomeNotFound) {
		t.Errorf("GetHomeByUID() error = %v, want ErrHomeNotFound", err)
	}
}

func TestSetConnected(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.CreateHome(ctx, &Home{ID: "h-1", UniqueID: "home-7f", OrgID: "org-3"}); err != nil {
		t.Fatalf("CreateHome() error = %v", err)
	}

	if err := repo.SetConnected(ctx, "h-1", true); err != nil {
		t.Fatalf("SetConnected() error = %v", err)
	}

	got, err := repo.GetHome(ctx, "h-1")
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if !got.Connected {
		t.Error("Connected = false after SetConnected(true)")
	}
}

func TestSetConnected_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.SetConnected(context.Background(), "missing", true)
	if !errors.Is(err, ErrHomeNotFound) {
		t.Errorf("SetConnected() error = %v, want ErrHomeNotFound", err)
	}
}

func TestTouchLastUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.CreateHome(ctx, &Home{ID: "h-1", UniqueID: "home-7f", OrgID: "org-3"}); err != nil {
		t.Fatalf("CreateHome() error = %v", err)
	}

	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	if err := repo.TouchLastUpdate(ctx, "h-1", ts); err != nil {
		t.Fatalf("TouchLastUpdate() error = %v", err)
	}

	got, err := repo.GetHome(ctx, "h-1")
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if got.LastUpdate == nil {
		t.Fatal("LastUpdate = nil after TouchLastUpdate()")
	}
	if !got.LastUpdate.Equal(ts) {
		t.Errorf("LastUpdate = %v, want %v", got.LastUpdate, ts)
	}
}

func TestListHomes(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, h := range []*Home{
		{ID: "h-2", UniqueID: "home-b", OrgID: "org-3"},
		{ID: "h-1", UniqueID: "home-a", OrgID: "org-3"},
	} {
		if err := repo.CreateHome(ctx, h); err != nil {
			t.Fatalf("CreateHome(%s) error = %v", h.ID, err)
		}
	}

	homes, err := repo.ListHomes(ctx)
	if err != nil {
		t.Fatalf("ListHomes() error = %v", err)
	}
	if len(homes) != 2 {
		t.Fatalf("ListHomes() returned %d homes, want 2", len(homes))
	}
	if homes[0].UniqueID != "home-a" {
		t.Errorf("first home = %q, want %q (ordered by unique_id)", homes[0].UniqueID, "home-a")
	}
}

func TestUsersForHome(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.CreateHome(ctx, &Home{ID: "h-1", UniqueID: "home-7f", OrgID: "org-3"}); err != nil {
		t.Fatalf("CreateHome() error = %v", err)
	}

	users := []*User{
		{ID: "u-1", Name: "Ana", Email: "ana@example.com",
			Attributes: map[string]any{"contactTrue": true}},
		{ID: "u-2", Name: "Ben",
			Attributes: map[string]any{"contactFalse": true}},
	}
	for _, u := range users {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.ID, err)
		}
		if err := repo.AddUserToHome(ctx, "h-1", u.ID); err != nil {
			t.Fatalf("AddUserToHome(%s) error = %v", u.ID, err)
		}
	}

	got, err := repo.ListUsersForHome(ctx, "h-1")
	if err != nil {
		t.Fatalf("ListUsersForHome() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListUsersForHome() returned %d users, want 2", len(got))
	}

	if got[0].Email != "ana@example.com" {
		t.Errorf("Email = %q, want %q", got[0].Email, "ana@example.com")
	}
	if enabled, ok := got[0].Attributes["contactTrue"].(bool); !ok || !enabled {
		t.Errorf("Attributes[contactTrue] = %v, want true", got[0].Attributes["contactTrue"])
	}
	if got[1].Email != "" {
		t.Errorf("Email = %q for user without email, want empty", got[1].Email)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetUser(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}

func TestUser_WantsNotification(t *testing.T) {
	tests := []struct {
		name      string
		attrs     map[string]any
		attribute string
		state     bool
		want      bool
	}{
		{
			name:      "opted in to open events",
			attrs:     map[string]any{"contactTrue": true},
			attribute: "contact",
			state:     true,
			want:      true,
		},
		{
			name:      "opted in to open but event is close",
			attrs:     map[string]any{"contactTrue": true},
			attribute: "contact",
			state:     false,
			want:      false,
		},
		{
			name:      "flag present but disabled",
			attrs:     map[string]any{"occupancyTrue": false},
			attribute: "occupancy",
			state:     true,
			want:      false,
		},
		{
			name:      "flag missing",
			attrs:     map[string]any{},
			attribute: "smoke",
			state:     true,
			want:      false,
		},
		{
			name:      "flag has wrong type",
			attrs:     map[string]any{"smokeTrue": "yes"},
			attribute: "smoke",
			state:     true,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Attributes: tt.attrs}
			if got := u.WantsNotification(tt.attribute, tt.state); got != tt.want {
				t.Errorf("WantsNotification(%q, %v) = %v, want %v", tt.attribute, tt.state, got, tt.want)
			}
		})
	}
}
