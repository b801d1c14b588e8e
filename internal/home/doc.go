// Package home provides the multi-tenant topology for Pulse Core.
//
// It defines Homes (physical sites identified on the wire by their unique
// ID) and Users (notification recipients with per-home membership). The
// ingest pipeline resolves inbound topics to a home, flips the home's
// connected flag on first telemetry, and stamps last_update on every
// accepted message.
//
// The package provides a Repository interface with a SQLite implementation.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + connection pooling).
package home
