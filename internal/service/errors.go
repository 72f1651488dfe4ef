package service

import "errors"

// Sentinel errors for identity resolution and discovery flows.
var (
	// ErrUserNotFound indicates the requested user does not exist at all.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoDriverProfile indicates the user exists but has not set up a
	// racer profile yet. Callers surface this as a guided empty state,
	// not a failure.
	ErrNoDriverProfile = errors.New("user has no racer profile")

	// ErrInvalidStatus indicates a link decision other than confirmed or rejected.
	ErrInvalidStatus = errors.New("status must be confirmed or rejected")

	// ErrUnknownDriverRef indicates an ingested entry references a driver
	// absent from the same payload.
	ErrUnknownDriverRef = errors.New("entry references unknown driver")
)
