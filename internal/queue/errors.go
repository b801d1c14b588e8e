package queue

import "errors"

// Sentinel errors for delayed queue operations.
var (
	// ErrQueueUnavailable indicates the Redis backend rejected an operation.
	ErrQueueUnavailable = errors.New("delayed queue unavailable")
)
