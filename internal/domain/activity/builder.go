package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/chronos/internal/domain/project"
)

// DefaultInterval is the heartbeat interval clients are expected to honor.
const DefaultInterval int64 = 120

// BuilderConfig tunes the rollup.
type BuilderConfig struct {
	// Interval is the heartbeat interval in seconds.
	Interval int64
	// Now is the clock used for the recency adjustment. Defaults to time.Now.
	Now func() time.Time
}

// BuildRequest scopes one rollup pass.
type BuildRequest struct {
	UserID string
	Start  float64
	End    float64
	// Historical disables the recency adjustment, as for full rebuilds.
	Historical bool
}

// BuildResult summarizes a finished pass.
type BuildResult struct {
	WindowStart int64
	WindowEnd   int64
	Events      int
	Groups      int
	Projects    int
}

// Builder turns stored heartbeats into hourly aggregate rows.
type Builder struct {
	heartbeats HeartbeatSource
	projects   project.ResolverRepository
	activities Repository
	interval   int64
	now        func() time.Time
	logger     *slog.Logger
	locks      userLocks
}

// NewBuilder creates a new rollup builder.
func NewBuilder(heartbeats HeartbeatSource, projects project.ResolverRepository, activities Repository, cfg BuilderConfig, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Builder{
		heartbeats: heartbeats,
		projects:   projects,
		activities: activities,
		interval:   interval,
		now:        now,
		logger:     logger,
	}
}

type group struct {
	rootID string
	times  []float64
}

// Build recomputes every hourly row touched by heartbeats in the hours
// covering [req.Start, req.End]. Values are always recomputed from the
// heartbeats, so repeating a pass converges on the same rows. A storage
// failure stops the pass; rows already written stay.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	if strings.TrimSpace(req.UserID) == "" || req.End < req.Start {
		return BuildResult{}, ErrInvalidWindow
	}

	unlock := b.locks.lock(req.UserID)
	defer unlock()

	result := BuildResult{
		WindowStart: HourStart(req.Start),
		WindowEnd:   HourStart(req.End) + HourSeconds,
	}

	events, err := b.heartbeats.ListRange(ctx, req.UserID, float64(result.WindowStart), float64(result.WindowEnd))
	if err != nil {
		return result, fmt.Errorf("loading heartbeats: %w", err)
	}
	result.Events = len(events)
	if len(events) == 0 {
		return result, nil
	}

	// Resolve every referenced project before touching aggregates.
	resolver := project.NewResolver(b.projects, req.UserID, b.logger)
	resolved := make([]project.Resolved, len(events))
	for i, hb := range events {
		r, err := resolver.Resolve(ctx, hb.ProjectFolder, hb.AlternateProject, hb.GitBranch)
		if err != nil {
			return result, fmt.Errorf("resolving project: %w", err)
		}
		resolved[i] = r
	}
	result.Projects = resolver.Projects()

	groups := make(map[GroupKey]*group)
	var order []GroupKey
	for i, hb := range events {
		key := GroupKey{
			UserID:    req.UserID,
			Category:  string(hb.Category),
			Language:  hb.Language,
			Branch:    hb.GitBranch,
			ProjectID: resolved[i].ID,
			Hour:      HourStart(hb.Time),
		}
		g, ok := groups[key]
		if !ok {
			g = &group{rootID: resolved[i].RootID}
			groups[key] = g
			order = append(order, key)
		}
		g.times = append(g.times, hb.Time)
	}
	result.Groups = len(order)

	var now time.Time
	if !req.Historical {
		now = b.now()
	}
	for _, key := range order {
		g := groups[key]
		spent := EstimateActiveTime(g.times, key.Hour, key.Hour+HourSeconds, b.interval, now)
		row := &HourlyActivity{
			ID:            uuid.NewString(),
			UserID:        key.UserID,
			Timestamp:     key.Hour,
			CompositeKey:  key.CompositeKey(),
			ProjectID:     key.ProjectID,
			RootProjectID: g.rootID,
			Branch:        key.Branch,
			Language:      key.Language,
			Category:      key.Category,
			TimeSpent:     Saturate(spent, b.interval),
		}
		if err := b.activities.Upsert(ctx, row); err != nil {
			return result, fmt.Errorf("upserting hourly activity at %d: %w", key.Hour, err)
		}
	}

	if err := resolver.Flush(ctx); err != nil {
		return result, err
	}

	b.logger.Debug("rollup complete",
		"user_id", req.UserID,
		"window_start", result.WindowStart,
		"window_end", result.WindowEnd,
		"events", result.Events,
		"groups", result.Groups,
		"projects", result.Projects,
	)
	return result, nil
}

var _ project.UserLocker = (*Builder)(nil)

// LockUser takes the lock Build holds for userID. Callers that change the
// project tree use it so a pass never mixes old and new roots.
func (b *Builder) LockUser(userID string) func() {
	return b.locks.lock(userID)
}

// RefreshWindow runs a live pass for a freshly stored batch.
func (b *Builder) RefreshWindow(ctx context.Context, userID string, start, end float64) error {
	_, err := b.Build(ctx, BuildRequest{UserID: userID, Start: start, End: end})
	return err
}

// userLocks serializes passes for the same user within this process.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*userLock)
	}
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
