package telemetry

import "errors"

var (
	// ErrMalformedPayload is returned when a gateway payload is not valid
	// JSON after sanitisation.
	ErrMalformedPayload = errors.New("malformed telemetry payload")
)
