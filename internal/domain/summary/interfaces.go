package summary

import "context"

// Repository reads the hourly aggregate store for reporting.
type Repository interface {
	// ListRange returns rows with start <= timestamp <= end.
	ListRange(ctx context.Context, userID string, start, end int64) ([]Activity, error)
	// ListRangeForProject is ListRange narrowed to rows whose project or
	// root project is projectID.
	ListRangeForProject(ctx context.Context, userID, projectID string, start, end int64) ([]Activity, error)
	TotalTime(ctx context.Context, userID string) (int64, error)
}
