// Package redis provides the shared cache connection for Pulse Core.
//
// The cache is the hot path of the ingest pipeline. It holds:
//   - home membership sets (which devices belong to which home)
//   - home-to-organisation mappings
//   - last-payload snapshots per device
//   - rule execution markers (executed flags and last-execution timestamps)
//   - the delayed job queue (sorted set scored by fire-at time)
//
// The package wraps go-redis with connection verification on open and a
// HealthCheck method matching the other infrastructure packages. Domain
// packages (statecache, queue) build their key schemas on top of the raw
// client exposed here.
//
// Usage:
//
//	client, err := redis.Open(redis.Config{Addr: "127.0.0.1:6379"})
//	if err != nil {
//	    return fmt.Errorf("opening redis: %w", err)
//	}
//	defer client.Close()
package redis
