// Package database provides the SQLite persistent store for Pulse Core.
//
// It owns connection setup (WAL mode, busy timeout, single-writer pool),
// embedded schema migrations, and a health check for the readiness
// endpoint. Repositories in the domain packages run their queries
// through the embedded *sql.DB.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration strategy:
//
// Migrations are additive-only so old binaries can read new schemas:
//   - new columns are NULLABLE or carry a DEFAULT
//   - columns are never dropped or renamed
//   - every migration ships an .up.sql and a .down.sql
//
// Security: all queries use parameterised statements, and the database
// file is created with owner-only permissions.
package database
