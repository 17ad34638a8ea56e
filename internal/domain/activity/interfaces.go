package activity

import (
	"context"

	"github.com/rpggio/chronos/internal/domain/heartbeat"
)

// HeartbeatSource reads stored heartbeats for a user.
type HeartbeatSource interface {
	// ListRange returns heartbeats with start <= time < end, oldest first.
	ListRange(ctx context.Context, userID string, start, end float64) ([]heartbeat.Heartbeat, error)
	// Bounds returns the earliest and latest heartbeat time for the user.
	Bounds(ctx context.Context, userID string) (heartbeat.Bounds, error)
}

// Repository provides persistence for hourly aggregates.
type Repository interface {
	// Upsert inserts the row if its (user, composite key) is new and in every
	// case sets TimeSpent to the row's value. Dimension fields of an existing
	// row are left untouched.
	Upsert(ctx context.Context, row *HourlyActivity) error
}

// UserLister enumerates users for the rebuild job.
type UserLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}
