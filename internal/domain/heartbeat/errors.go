package heartbeat

import "errors"

var (
	// ErrInvalidInput indicates a heartbeat batch failed validation.
	ErrInvalidInput = errors.New("invalid heartbeat input")
	// ErrEmptyBatch indicates a save was requested with no heartbeats.
	ErrEmptyBatch = errors.New("at least one heartbeat is required")
)
