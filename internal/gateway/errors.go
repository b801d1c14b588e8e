package gateway

import "errors"

// Sentinel errors for inbound message handling.
var (
	// ErrMalformedTopic indicates a topic outside the recognised home
	// hierarchy shapes.
	ErrMalformedTopic = errors.New("malformed topic")
)
