package statecache

import "errors"

var (
	// ErrUnknownHome is returned when a home UID resolves neither in the
	// cache nor in the database.
	ErrUnknownHome = errors.New("unknown home")

	// ErrNoPayload is returned when no last-payload snapshot exists for a
	// device. The first reading after startup hits this.
	ErrNoPayload = errors.New("no cached payload")
)
