package influxdb

import "errors"

// Sentinel errors for the telemetry mirror; match with errors.Is:
//
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirror turned off in config, carry on without it
//	}
var (
	// ErrNotConnected: the client has been closed or never connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed: the initial ping did not succeed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled: the influxdb section of the config has enabled: false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
