package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service stores heartbeat batches and keeps hourly aggregates current.
type Service struct {
	repo   Repository
	rollup Rollup
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new heartbeat service.
func NewService(repo Repository, rollup Rollup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, rollup: rollup, logger: logger, now: time.Now}
}

// SaveResult reports what a save call persisted.
type SaveResult struct {
	Count int     `json:"count"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Save validates and stores a batch, then refreshes the aggregates covering
// the batch's time span. A failed refresh is returned to the caller; the
// stored heartbeats are kept and a later save or rebuild converges.
func (s *Service) Save(ctx context.Context, userID string, beats []Heartbeat) (SaveResult, error) {
	if strings.TrimSpace(userID) == "" {
		return SaveResult{}, ErrInvalidInput
	}
	if len(beats) == 0 {
		return SaveResult{}, ErrEmptyBatch
	}
	if err := Validate(beats); err != nil {
		return SaveResult{}, err
	}

	sorted := make([]Heartbeat, len(beats))
	copy(sorted, beats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	now := s.now()
	for i := range sorted {
		if sorted[i].ID == "" {
			sorted[i].ID = uuid.NewString()
		}
		sorted[i].UserID = userID
		if sorted[i].CreatedAt.IsZero() {
			sorted[i].CreatedAt = now
		}
	}

	if err := s.repo.InsertBatch(ctx, userID, sorted); err != nil {
		return SaveResult{}, fmt.Errorf("storing heartbeats: %w", err)
	}

	start, end := sorted[0].Time, sorted[len(sorted)-1].Time
	if err := s.rollup.RefreshWindow(ctx, userID, start, end); err != nil {
		s.logger.Error("rollup after save failed", "user_id", userID, "error", err)
		return SaveResult{}, fmt.Errorf("refreshing hourly activity: %w", err)
	}

	s.logger.Debug("heartbeats saved", "user_id", userID, "count", len(sorted), "start", start, "end", end)
	return SaveResult{Count: len(sorted), Start: start, End: end}, nil
}

// MaxTime is the latest accepted heartbeat time, 9999-12-31T23:59:59Z.
const MaxTime float64 = 253402300799

// Validate checks the fields the aggregation engine relies on.
func Validate(beats []Heartbeat) error {
	for i, hb := range beats {
		if math.IsNaN(hb.Time) || hb.Time <= 0 || hb.Time > MaxTime {
			return fmt.Errorf("%w: heartbeat %d: time must be unix seconds in (0, %d]", ErrInvalidInput, i, int64(MaxTime))
		}
		if strings.TrimSpace(hb.Entity) == "" {
			return fmt.Errorf("%w: heartbeat %d: entity is required", ErrInvalidInput, i)
		}
		if !hb.Category.Valid() {
			return fmt.Errorf("%w: heartbeat %d: unknown category %q", ErrInvalidInput, i, hb.Category)
		}
	}
	return nil
}
