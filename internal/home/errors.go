package home

import "errors"

var (
	// ErrHomeNotFound is returned when a home ID or unique ID does not exist.
	ErrHomeNotFound = errors.New("home not found")

	// ErrUserNotFound is returned when a user ID does not exist.
	ErrUserNotFound = errors.New("user not found")
)
