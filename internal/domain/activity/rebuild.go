package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/chronos/internal/repository"
)

// RebuildReport counts how the rebuild went per user.
type RebuildReport struct {
	Users     int
	Succeeded int
	Skipped   int
	Failed    int
}

// Rebuilder recomputes every user's aggregates from their full heartbeat
// history, one user at a time.
type Rebuilder struct {
	users      UserLister
	heartbeats HeartbeatSource
	builder    *Builder
	chunk      int64
	logger     *slog.Logger
}

// NewRebuilder creates a rebuild job. A positive chunk splits each user's
// history into hour-aligned windows of at most that length.
func NewRebuilder(users UserLister, heartbeats HeartbeatSource, builder *Builder, chunk time.Duration, logger *slog.Logger) *Rebuilder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rebuilder{
		users:      users,
		heartbeats: heartbeats,
		builder:    builder,
		chunk:      chunkSeconds(chunk),
		logger:     logger,
	}
}

// Run rebuilds all users. A failing user is logged and skipped; only a
// failure to list users or a cancelled context stops the job.
func (r *Rebuilder) Run(ctx context.Context) (RebuildReport, error) {
	var report RebuildReport

	ids, err := r.users.ListIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("listing users: %w", err)
	}
	report.Users = len(ids)
	r.logger.Info("rebuild started", "users", len(ids))

	for _, userID := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := r.RebuildUser(ctx, userID)
		switch {
		case err == nil:
			report.Succeeded++
			r.logger.Info("rebuild completed for user", "user_id", userID)
		case errors.Is(err, ErrNoHeartbeats):
			report.Skipped++
			r.logger.Warn("no heartbeats for user, skipping", "user_id", userID)
		default:
			report.Failed++
			r.logger.Error("rebuild failed for user", "user_id", userID, "error", err)
		}
	}

	r.logger.Info("rebuild finished",
		"users", report.Users,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// RebuildUser recomputes one user's aggregates over their whole history.
func (r *Rebuilder) RebuildUser(ctx context.Context, userID string) error {
	bounds, err := r.heartbeats.Bounds(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoHeartbeats
	}
	if err != nil {
		return fmt.Errorf("loading heartbeat bounds: %w", err)
	}

	start := HourStart(bounds.Min)
	end := HourStart(bounds.Max) + HourSeconds
	r.logger.Info("rebuilding user",
		"user_id", userID,
		"from", time.Unix(start, 0).UTC().Format(time.RFC3339),
		"to", time.Unix(end, 0).UTC().Format(time.RFC3339),
	)

	for _, w := range splitWindow(start, end, r.chunk) {
		if _, err := r.builder.Build(ctx, BuildRequest{
			UserID:     userID,
			Start:      float64(w[0]),
			End:        float64(w[1] - 1),
			Historical: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// splitWindow cuts the hour-aligned [start, end) into consecutive windows of
// at most chunk seconds. A non-positive chunk yields the whole range.
func splitWindow(start, end, chunk int64) [][2]int64 {
	if chunk <= 0 || end-start <= chunk {
		return [][2]int64{{start, end}}
	}
	var windows [][2]int64
	for from := start; from < end; from += chunk {
		to := from + chunk
		if to > end {
			to = end
		}
		windows = append(windows, [2]int64{from, to})
	}
	return windows
}

// chunkSeconds rounds d up to whole hours.
func chunkSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	hours := (secs + HourSeconds - 1) / HourSeconds
	return hours * HourSeconds
}
