// Package device provides the device model for Pulse Core.
//
// Devices are the sensors and actuators that report through a home
// gateway. Each device is identified on the wire by its unique ID (the
// deviceUID segment of inbound MQTT topics) scoped to an organisation.
// The package provides a Repository interface with a SQLite
// implementation covering the ingest pipeline's needs: wire-identifier
// resolution, bridge discovery registration, and home assignment.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + connection pooling).
package device
