package heartbeat

import "context"

// Repository provides persistence for heartbeats.
type Repository interface {
	InsertBatch(ctx context.Context, userID string, beats []Heartbeat) error
}

// Rollup refreshes hourly aggregates for the span of a stored batch.
type Rollup interface {
	RefreshWindow(ctx context.Context, userID string, start, end float64) error
}
