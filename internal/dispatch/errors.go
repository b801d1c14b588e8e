package dispatch

import "errors"

// Sentinel errors for result dispatch.
var (
	// ErrResultFailed indicates at least one result in a dispatch could
	// not be executed.
	ErrResultFailed = errors.New("result execution failed")
)
