package device

import "errors"

var (
	// ErrDeviceNotFound is returned when a device ID or unique ID does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDuplicateDevice is returned when creating a device whose unique ID
	// already exists within the organisation.
	ErrDuplicateDevice = errors.New("device already exists in organisation")
)
