package activity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const hour int64 = 1699999200

func beat(offset float64, language string) heartbeat.Heartbeat {
	return heartbeat.Heartbeat{
		Time:          float64(hour) + offset,
		Entity:        "main.go",
		ProjectFolder: "/src/app",
		Language:      language,
	}
}

func knownProject(repo *mocks.ProjectRepository) {
	repo.On("GetByFolder", mock.Anything, "u1", "/src/app").Return(&project.Project{ID: "p1", Branches: []string{}}, nil)
}

func TestBuilder_RejectsInvalidWindow(t *testing.T) {
	b := activity.NewBuilder(&mocks.HeartbeatRepository{}, &mocks.ProjectRepository{}, &mocks.ActivityRepository{}, activity.BuilderConfig{}, nil)

	_, err := b.Build(context.Background(), activity.BuildRequest{UserID: "", Start: 1, End: 2})
	require.ErrorIs(t, err, activity.ErrInvalidWindow)

	_, err = b.Build(context.Background(), activity.BuildRequest{UserID: "u1", Start: 2, End: 1})
	require.ErrorIs(t, err, activity.ErrInvalidWindow)
}

func TestBuilder_ExpandsToWholeHours(t *testing.T) {
	ctx := context.Background()

	beats := &mocks.HeartbeatRepository{}
	beats.On("ListRange", ctx, "u1", float64(hour), float64(hour+2*activity.HourSeconds)).Return([]heartbeat.Heartbeat{}, nil)

	b := activity.NewBuilder(beats, &mocks.ProjectRepository{}, &mocks.ActivityRepository{}, activity.BuilderConfig{}, nil)
	res, err := b.Build(ctx, activity.BuildRequest{UserID: "u1", Start: float64(hour + 1800), End: float64(hour + 3601)})
	require.NoError(t, err)
	require.Equal(t, hour, res.WindowStart)
	require.Equal(t, hour+2*activity.HourSeconds, res.WindowEnd)
	require.Zero(t, res.Groups)
	beats.AssertExpectations(t)
}

func TestBuilder_GroupsAndUpserts(t *testing.T) {
	ctx := context.Background()

	events := []heartbeat.Heartbeat{beat(0, "Go"), beat(5, "Python"), beat(130, "Go"), beat(3700, "Go")}
	beats := &mocks.HeartbeatRepository{}
	beats.On("ListRange", ctx, "u1", mock.Anything, mock.Anything).Return(events, nil)

	projects := &mocks.ProjectRepository{}
	knownProject(projects)

	var rows []*activity.HourlyActivity
	activities := &mocks.ActivityRepository{}
	activities.On("Upsert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		rows = append(rows, args.Get(1).(*activity.HourlyActivity))
	}).Return(nil)

	b := activity.NewBuilder(beats, projects, activities, activity.BuilderConfig{Interval: 120}, nil)
	res, err := b.Build(ctx, activity.BuildRequest{UserID: "u1", Start: float64(hour), End: float64(hour + 3700), Historical: true})
	require.NoError(t, err)
	require.Equal(t, 4, res.Events)
	require.Equal(t, 3, res.Groups)
	require.Equal(t, 1, res.Projects)

	require.Len(t, rows, 3)
	require.Equal(t, "Go", rows[0].Language)
	require.Equal(t, hour, rows[0].Timestamp)
	require.Equal(t, int64(240), rows[0].TimeSpent)
	require.Equal(t, "p1", rows[0].RootProjectID)
	require.Equal(t, "Python", rows[1].Language)
	require.Equal(t, int64(120), rows[1].TimeSpent)
	require.Equal(t, hour+activity.HourSeconds, rows[2].Timestamp)

	want := activity.GroupKey{UserID: "u1", Language: "Go", ProjectID: "p1", Hour: hour}
	require.Equal(t, want.CompositeKey(), rows[0].CompositeKey)
}

func TestBuilder_LiveAndHistoricalPasses(t *testing.T) {
	ctx := context.Background()

	events := []heartbeat.Heartbeat{beat(0, "Go"), beat(130, "Go")}
	beats := &mocks.HeartbeatRepository{}
	beats.On("ListRange", ctx, "u1", mock.Anything, mock.Anything).Return(events, nil)

	projects := &mocks.ProjectRepository{}
	knownProject(projects)

	var spent []int64
	activities := &mocks.ActivityRepository{}
	activities.On("Upsert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		spent = append(spent, args.Get(1).(*activity.HourlyActivity).TimeSpent)
	}).Return(nil)

	now := func() time.Time { return time.Unix(hour+150, 0) }
	b := activity.NewBuilder(beats, projects, activities, activity.BuilderConfig{Interval: 120, Now: now}, nil)

	require.NoError(t, b.RefreshWindow(ctx, "u1", float64(hour), float64(hour+130)))
	_, err := b.Build(ctx, activity.BuildRequest{UserID: "u1", Start: float64(hour), End: float64(hour + 130), Historical: true})
	require.NoError(t, err)

	require.Equal(t, []int64{120, 240}, spent)
}

func TestBuilder_StopsOnUpsertError(t *testing.T) {
	ctx := context.Background()

	beats := &mocks.HeartbeatRepository{}
	beats.On("ListRange", ctx, "u1", mock.Anything, mock.Anything).Return([]heartbeat.Heartbeat{beat(0, "Go"), beat(1, "Python")}, nil)

	projects := &mocks.ProjectRepository{}
	knownProject(projects)

	activities := &mocks.ActivityRepository{}
	activities.On("Upsert", ctx, mock.Anything).Return(errors.New("disk full")).Once()

	b := activity.NewBuilder(beats, projects, activities, activity.BuilderConfig{}, nil)
	_, err := b.Build(ctx, activity.BuildRequest{UserID: "u1", Start: float64(hour), End: float64(hour), Historical: true})
	require.ErrorContains(t, err, "disk full")

	activities.AssertNumberOfCalls(t, "Upsert", 1)
	projects.AssertNotCalled(t, "AppendBranches", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuilder_ResolverFailureWritesNothing(t *testing.T) {
	ctx := context.Background()

	beats := &mocks.HeartbeatRepository{}
	beats.On("ListRange", ctx, "u1", mock.Anything, mock.Anything).Return([]heartbeat.Heartbeat{beat(0, "Go")}, nil)

	projects := &mocks.ProjectRepository{}
	projects.On("GetByFolder", ctx, "u1", "/src/app").Return(nil, errors.New("db closed"))

	activities := &mocks.ActivityRepository{}

	b := activity.NewBuilder(beats, projects, activities, activity.BuilderConfig{}, nil)
	_, err := b.Build(ctx, activity.BuildRequest{UserID: "u1", Start: float64(hour), End: float64(hour), Historical: true})
	require.ErrorContains(t, err, "db closed")
	activities.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestBuilder_SerializesPassesPerUser(t *testing.T) {
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	beats := &mocks.HeartbeatRepository{}
	beats.On("ListRange", ctx, "u1", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}).Return([]heartbeat.Heartbeat{}, nil)

	b := activity.NewBuilder(beats, &mocks.ProjectRepository{}, &mocks.ActivityRepository{}, activity.BuilderConfig{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Build(ctx, activity.BuildRequest{UserID: "u1", Start: float64(hour), End: float64(hour)})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxSeen)
}
