package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Connection constants.
const (
	// connectTimeout is the timeout for verifying connectivity on open.
	connectTimeout = 5 * time.Second

	// defaultDialTimeout bounds the initial TCP dial.
	defaultDialTimeout = 5 * time.Second

	// defaultPoolSize is the connection pool size shared by the ingest
	// workers, the rule engine and the delayed queue consumers.
	defaultPoolSize = 10
)

// Config contains Redis connection options.
// These map to the redis section of config.yaml.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is the server password (empty for no auth).
	Password string

	// DB is the logical database number.
	DB int
}

// Client wraps a go-redis client with Pulse Core-specific lifecycle
// management. The embedded client is safe for concurrent use.
type Client struct {
	*goredis.Client
}

// Open creates a Redis client and verifies connectivity with a ping.
//
// Parameters:
//   - cfg: Redis connection configuration
//
// Returns:
//   - *Client: Connected client wrapper
//   - error: If the server is unreachable or authentication fails
func Open(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddr
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: defaultDialTimeout,
		PoolSize:    defaultPoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{Client: rdb}, nil
}

// HealthCheck verifies the Redis connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return ErrNotConnected
	}

	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}

	return nil
}

// Close releases the connection pool. Safe to call on a nil client.
func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
