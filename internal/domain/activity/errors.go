package activity

import "errors"

var (
	// ErrInvalidWindow indicates a rollup window with no user or end before start.
	ErrInvalidWindow = errors.New("invalid rollup window")
	// ErrNoHeartbeats indicates a user has nothing to rebuild from.
	ErrNoHeartbeats = errors.New("user has no heartbeats")
)
