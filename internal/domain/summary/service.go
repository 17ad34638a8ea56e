package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// MaxBuckets caps how many buckets a single range request may produce.
const MaxBuckets = 10000

// Service answers reporting queries from the hourly aggregate store.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new summary service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Total returns the user's all-time tracked seconds.
func (s *Service) Total(ctx context.Context, userID string) (int64, error) {
	total, err := s.repo.TotalTime(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("summing activity: %w", err)
	}
	return total, nil
}

// Range reports the time tracked between q.Start and q.End. The bucketed,
// per-root-project breakdown is included only when q.Full is set.
func (s *Service) Range(ctx context.Context, userID string, q RangeQuery) (*RangeResult, error) {
	interval, err := normalize(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListRange(ctx, userID, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}

	res := newResult(rows, q, interval)
	if q.Full {
		res.Activities = Aggregate(Bucket(rows, q.Start, q.End, interval))
	}
	return res, nil
}

// ProjectActivity reports time for a project and everything rolled up under
// it, bucketed without merging.
func (s *Service) ProjectActivity(ctx context.Context, userID, projectID string, q RangeQuery) (*RangeResult, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidRange)
	}
	interval, err := normalize(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListRangeForProject(ctx, userID, projectID, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("listing project activity: %w", err)
	}

	res := newResult(rows, q, interval)
	res.Activities = Bucket(rows, q.Start, q.End, interval)
	return res, nil
}

func normalize(q RangeQuery) (int64, error) {
	if q.End < q.Start {
		return 0, fmt.Errorf("%w: end precedes start", ErrInvalidRange)
	}
	if _, ok := spanOf(q.Start, q.End); !ok {
		return 0, fmt.Errorf("%w: range is too wide", ErrInvalidRange)
	}
	if q.Interval < 0 {
		return 0, fmt.Errorf("%w: negative interval", ErrInvalidRange)
	}
	interval := q.Interval
	if interval == 0 {
		interval = DefaultInterval(q.Start, q.End)
	}
	if BucketCount(q.Start, q.End, interval) > MaxBuckets {
		return 0, fmt.Errorf("%w: more than %d buckets", ErrInvalidRange, MaxBuckets)
	}
	return interval, nil
}

func newResult(rows []Activity, q RangeQuery, interval int64) *RangeResult {
	total := lo.SumBy(rows, func(a Activity) int64 { return a.TimeSpent })
	return &RangeResult{
		TotalTime:    total,
		TotalTimeStr: FormatDuration(total),
		Start:        q.Start,
		End:          q.End,
		Interval:     interval,
	}
}

// FormatDuration renders seconds as hours and minutes, e.g. "2h 5m".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
