package mocks

import (
	"context"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// HeartbeatRepository is a mock for heartbeat.Repository and activity.HeartbeatSource.
type HeartbeatRepository struct {
	mock.Mock
}

func (m *HeartbeatRepository) InsertBatch(ctx context.Context, userID string, beats []heartbeat.Heartbeat) error {
	args := m.Called(ctx, userID, beats)
	return args.Error(0)
}

func (m *HeartbeatRepository) ListRange(ctx context.Context, userID string, start, end float64) ([]heartbeat.Heartbeat, error) {
	args := m.Called(ctx, userID, start, end)
	if beats, ok := args.Get(0).([]heartbeat.Heartbeat); ok {
		return beats, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HeartbeatRepository) Bounds(ctx context.Context, userID string) (heartbeat.Bounds, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(heartbeat.Bounds), args.Error(1)
}

// Rollup is a mock for heartbeat.Rollup.
type Rollup struct {
	mock.Mock
}

func (m *Rollup) RefreshWindow(ctx context.Context, userID string, start, end float64) error {
	args := m.Called(ctx, userID, start, end)
	return args.Error(0)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, userID string, proj *project.Project) error {
	args := m.Called(ctx, userID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	args := m.Called(ctx, userID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetByFolder(ctx context.Context, userID, folder string) (*project.Project, error) {
	args := m.Called(ctx, userID, folder)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) AppendBranches(ctx context.Context, userID string, branches map[string][]string) error {
	args := m.Called(ctx, userID, branches)
	return args.Error(0)
}

func (m *ProjectRepository) List(ctx context.Context, userID string) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListChildren(ctx context.Context, userID, parentID string) ([]project.Project, error) {
	args := m.Called(ctx, userID, parentID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Reparent(ctx context.Context, userID, id string, parentID *string, subtree []string, rootID string) error {
	args := m.Called(ctx, userID, id, parentID, subtree, rootID)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository and summary.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Upsert(ctx context.Context, row *activity.HourlyActivity) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *ActivityRepository) ListRange(ctx context.Context, userID string, start, end int64) ([]summary.Activity, error) {
	args := m.Called(ctx, userID, start, end)
	if list, ok := args.Get(0).([]summary.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) ListRangeForProject(ctx context.Context, userID, projectID string, start, end int64) ([]summary.Activity, error) {
	args := m.Called(ctx, userID, projectID, start, end)
	if list, ok := args.Get(0).([]summary.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) TotalTime(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) AddAPIKey(ctx context.Context, userID, keyHash, description string) error {
	args := m.Called(ctx, userID, keyHash, description)
	return args.Error(0)
}

func (m *UserRepository) UserIDForKey(ctx context.Context, keyHash string) (string, error) {
	args := m.Called(ctx, keyHash)
	return args.String(0), args.Error(1)
}
