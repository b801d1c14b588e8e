// Package influxdb provides InfluxDB connectivity for Pulse Core.
//
// It wraps the official influxdb-client-go v2 library with Pulse Core-specific
// patterns for connection management, telemetry writing, and health monitoring.
//
// # Purpose
//
// This package is the time-series mirror of the ingest pipeline:
//   - Device telemetry readings (one point per accepted gateway message)
//   - Rule execution records for audit and dashboards
//
// SQLite remains the source of truth; InfluxDB is an optional mirror for
// graphing and retention beyond the relational pruning window. When disabled
// in configuration, Connect returns ErrDisabled and the caller runs without
// the mirror.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "casapulse",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Mirror a telemetry reading
//	client.WriteTelemetry("org-3", "home-7f", "sensor-front-door",
//	    map[string]interface{}{"contact": false}, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
