package redis

import "errors"

// Sentinel errors for Redis operations.
// Use errors.Is() to check error types.
var (
	// ErrMissingAddr indicates no server address was configured.
	ErrMissingAddr = errors.New("redis address not configured")

	// ErrConnectionFailed indicates the initial connection could not be
	// established.
	ErrConnectionFailed = errors.New("redis connection failed")

	// ErrNotConnected indicates an operation was attempted on a closed or
	// uninitialised client.
	ErrNotConnected = errors.New("redis client not connected")
)
