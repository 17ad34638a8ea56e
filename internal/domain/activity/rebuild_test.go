package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/rpggio/chronos/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRebuilder_Run(t *testing.T) {
	ctx := context.Background()

	users := &mocks.UserRepository{}
	users.On("ListIDs", ctx).Return([]string{"empty", "broken", "u1"}, nil)

	beats := &mocks.HeartbeatRepository{}
	beats.On("Bounds", ctx, "empty").Return(heartbeat.Bounds{}, repository.ErrNotFound)
	beats.On("Bounds", ctx, "broken").Return(heartbeat.Bounds{}, errors.New("corrupt"))
	beats.On("Bounds", ctx, "u1").Return(heartbeat.Bounds{Min: float64(hour + 10), Max: float64(hour + 2*activity.HourSeconds + 10)}, nil)
	beats.On("ListRange", ctx, "u1", mock.Anything, mock.Anything).Return([]heartbeat.Heartbeat{}, nil)

	builder := activity.NewBuilder(beats, &mocks.ProjectRepository{}, &mocks.ActivityRepository{}, activity.BuilderConfig{}, nil)
	report, err := activity.NewRebuilder(users, beats, builder, time.Hour, nil).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, activity.RebuildReport{Users: 3, Succeeded: 1, Skipped: 1, Failed: 1}, report)

	// One pass per hour of history.
	beats.AssertNumberOfCalls(t, "ListRange", 3)
	beats.AssertCalled(t, "ListRange", ctx, "u1", float64(hour+2*activity.HourSeconds), float64(hour+3*activity.HourSeconds))
}

func TestRebuilder_WholeHistoryInOnePass(t *testing.T) {
	ctx := context.Background()

	beats := &mocks.HeartbeatRepository{}
	beats.On("Bounds", ctx, "u1").Return(heartbeat.Bounds{Min: float64(hour + 10), Max: float64(hour + 5*activity.HourSeconds)}, nil)
	beats.On("ListRange", ctx, "u1", float64(hour), float64(hour+6*activity.HourSeconds)).Return([]heartbeat.Heartbeat{}, nil).Once()

	builder := activity.NewBuilder(beats, &mocks.ProjectRepository{}, &mocks.ActivityRepository{}, activity.BuilderConfig{}, nil)
	require.NoError(t, activity.NewRebuilder(&mocks.UserRepository{}, beats, builder, 0, nil).RebuildUser(ctx, "u1"))
	beats.AssertExpectations(t)
}

func TestRebuilder_ListUsersError(t *testing.T) {
	ctx := context.Background()

	users := &mocks.UserRepository{}
	users.On("ListIDs", ctx).Return(nil, errors.New("db closed"))

	_, err := activity.NewRebuilder(users, &mocks.HeartbeatRepository{}, nil, 0, nil).Run(ctx)
	require.ErrorContains(t, err, "db closed")
}

func TestRebuilder_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	users := &mocks.UserRepository{}
	users.On("ListIDs", ctx).Return([]string{"u1"}, nil)

	report, err := activity.NewRebuilder(users, &mocks.HeartbeatRepository{}, nil, 0, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, report.Users)
	require.Zero(t, report.Succeeded)
}
