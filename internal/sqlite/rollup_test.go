package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/domain/user"
	"github.com/stretchr/testify/require"
)

// hourStart is 2023-11-14T22:00:00Z.
const hourStart int64 = 1699999200

type rollupFixture struct {
	db         *DB
	heartbeats *HeartbeatRepository
	projects   *ProjectRepository
	activities *ActivityRepository
}

func newRollupFixture(t *testing.T) *rollupFixture {
	t.Helper()
	db := NewTestDB(t)
	return &rollupFixture{
		db:         db,
		heartbeats: NewHeartbeatRepository(db),
		projects:   NewProjectRepository(db),
		activities: NewActivityRepository(db),
	}
}

func (f *rollupFixture) builder(cfg activity.BuilderConfig) *activity.Builder {
	return activity.NewBuilder(f.heartbeats, f.projects, f.activities, cfg, nil)
}

func (f *rollupFixture) insert(t *testing.T, userID string, beats ...heartbeat.Heartbeat) {
	t.Helper()
	for i := range beats {
		if beats[i].ID == "" {
			beats[i].ID = userID + "-" + time.Unix(int64(beats[i].Time), 0).UTC().Format("150405") + "-" + beats[i].Language
		}
		if beats[i].Entity == "" {
			beats[i].Entity = "main.go"
		}
	}
	require.NoError(t, f.heartbeats.InsertBatch(context.Background(), userID, beats))
}

func (f *rollupFixture) rows(t *testing.T, userID string) []summary.Activity {
	t.Helper()
	rows, err := f.activities.ListRange(context.Background(), userID, 0, hourStart+10*activity.DaySeconds)
	require.NoError(t, err)
	return rows
}

func beatAt(offset int64, folder, branch, language string) heartbeat.Heartbeat {
	return heartbeat.Heartbeat{
		Time:          float64(hourStart + offset),
		ProjectFolder: folder,
		GitBranch:     branch,
		Language:      language,
	}
}

func TestRollup_FirstSightingAndIdempotence(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()

	b0 := beatAt(0, "/src/app", "main", "Go")
	b0.AlternateProject = "app"
	f.insert(t, "u1", b0, beatAt(130, "/src/app", "main", "Go"), beatAt(260, "/src/app", "feature", "Go"))

	builder := f.builder(activity.BuilderConfig{Interval: 120})
	req := activity.BuildRequest{UserID: "u1", Start: float64(hourStart), End: float64(hourStart + 260), Historical: true}

	res, err := builder.Build(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 3, res.Events)
	require.Equal(t, 2, res.Groups, "branches split groups")
	require.Equal(t, 1, res.Projects)

	proj, err := f.projects.GetByFolder(ctx, "u1", "/src/app")
	require.NoError(t, err)
	require.Equal(t, "app", proj.Name)
	require.ElementsMatch(t, []string{"main", "feature"}, proj.Branches)

	first := f.rows(t, "u1")
	require.Len(t, first, 2)

	_, err = builder.Build(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first, f.rows(t, "u1"))

	total, err := f.activities.TotalTime(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(3*120), total)
}

func TestRollup_RecencyAdjustment(t *testing.T) {
	f := newRollupFixture(t)
	f.insert(t, "u1",
		beatAt(0, "/src/app", "", "Go"),
		beatAt(130, "/src/app", "", "Go"),
		beatAt(260, "/src/app", "", "Go"),
	)

	builder := f.builder(activity.BuilderConfig{
		Interval: 120,
		Now:      func() time.Time { return time.Unix(hourStart+290, 0) },
	})
	require.NoError(t, builder.RefreshWindow(context.Background(), "u1", float64(hourStart), float64(hourStart+260)))

	rows := f.rows(t, "u1")
	require.Len(t, rows, 1)
	require.Equal(t, int64(240), rows[0].TimeSpent)
}

func TestRollup_OverlappingWindowsShareRows(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()
	f.insert(t, "u1",
		beatAt(10, "/src/app", "", "Go"),
		beatAt(3700, "/src/app", "", "Go"),
	)
	builder := f.builder(activity.BuilderConfig{Interval: 120})

	for _, w := range [][2]int64{{10, 10}, {3700, 3700}, {0, 3700}} {
		_, err := builder.Build(ctx, activity.BuildRequest{
			UserID:     "u1",
			Start:      float64(hourStart + w[0]),
			End:        float64(hourStart + w[1]),
			Historical: true,
		})
		require.NoError(t, err)
	}

	rows := f.rows(t, "u1")
	require.Len(t, rows, 2)
	require.Equal(t, hourStart, rows[0].Timestamp)
	require.Equal(t, hourStart+activity.HourSeconds, rows[1].Timestamp)
	require.Equal(t, int64(120), rows[0].TimeSpent)
	require.Equal(t, int64(120), rows[1].TimeSpent)
}

func TestRollup_SaturatesNearFullHour(t *testing.T) {
	f := newRollupFixture(t)
	var beats []heartbeat.Heartbeat
	for k := int64(0); k < 29; k++ {
		beats = append(beats, beatAt(k*120, "/src/app", "", "Go"))
	}
	f.insert(t, "u1", beats...)

	_, err := f.builder(activity.BuilderConfig{Interval: 120}).Build(context.Background(), activity.BuildRequest{
		UserID: "u1", Start: float64(hourStart), End: float64(hourStart + 3599), Historical: true,
	})
	require.NoError(t, err)

	rows := f.rows(t, "u1")
	require.Len(t, rows, 1)
	require.Equal(t, int64(3600), rows[0].TimeSpent)
}

func TestRollup_UsersNeverShareRows(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()
	f.insert(t, "u1", beatAt(0, "/src/app", "main", "Go"))
	f.insert(t, "u2", beatAt(0, "/src/app", "main", "Go"))

	builder := f.builder(activity.BuilderConfig{Interval: 120})
	for _, userID := range []string{"u1", "u2"} {
		_, err := builder.Build(ctx, activity.BuildRequest{
			UserID: userID, Start: float64(hourStart), End: float64(hourStart), Historical: true,
		})
		require.NoError(t, err)
	}

	u1 := f.rows(t, "u1")
	u2 := f.rows(t, "u2")
	require.Len(t, u1, 1)
	require.Len(t, u2, 1)
	require.NotEqual(t, u1[0].ProjectID, u2[0].ProjectID)

	var count int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(DISTINCT composite_key) FROM hourly_activities`).Scan(&count))
	require.Equal(t, 2, count)
}

func TestRollup_RootProjectIsDenormalized(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.projects.Create(ctx, "u1", newProject("root", "/src")))
	child := newProject("child", "/src/app")
	parent := "root"
	child.ParentID = &parent
	require.NoError(t, f.projects.Create(ctx, "u1", child))

	f.insert(t, "u1", beatAt(0, "/src/app", "", "Go"), beatAt(10, "", "", "Go"))

	_, err := f.builder(activity.BuilderConfig{}).Build(ctx, activity.BuildRequest{
		UserID: "u1", Start: float64(hourStart), End: float64(hourStart + 10), Historical: true,
	})
	require.NoError(t, err)

	roots := map[string]string{}
	for _, r := range f.rows(t, "u1") {
		roots[r.ProjectID] = r.RootProject.ID
	}
	unknown, err := f.projects.GetByFolder(ctx, "u1", "unknown")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"child": "root", unknown.ID: unknown.ID}, roots)
}

func TestRollup_StorageFailureStopsPass(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()
	f.insert(t, "u1",
		beatAt(0, "/src/app", "main", "Go"),
		beatAt(5, "/src/app", "main", "Python"),
	)

	// Each upsert issues two writes, so the third fails the second row.
	failing := &ActivityRepository{
		db:  f.db,
		uow: &failOnNthExecUoW{db: f.db.DB, failOn: 3, err: errors.New("disk full")},
	}
	builder := activity.NewBuilder(f.heartbeats, f.projects, failing, activity.BuilderConfig{Interval: 120}, nil)

	req := activity.BuildRequest{UserID: "u1", Start: float64(hourStart), End: float64(hourStart + 5), Historical: true}
	_, err := builder.Build(ctx, req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")

	rows := f.rows(t, "u1")
	require.Len(t, rows, 1, "rows written before the failure stay")
	require.Equal(t, "Go", rows[0].Language)

	proj, err := f.projects.GetByFolder(ctx, "u1", "/src/app")
	require.NoError(t, err)
	require.Empty(t, proj.Branches, "branch flush runs only after a successful pass")

	// A retry converges.
	_, err = f.builder(activity.BuilderConfig{Interval: 120}).Build(ctx, req)
	require.NoError(t, err)
	require.Len(t, f.rows(t, "u1"), 2)
}

func TestRollup_SaveRefreshesAggregates(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()

	builder := f.builder(activity.BuilderConfig{
		Interval: 120,
		Now:      func() time.Time { return time.Unix(hourStart+7200, 0) },
	})
	svc := heartbeat.NewService(f.heartbeats, builder, nil)

	res, err := svc.Save(ctx, "u1", []heartbeat.Heartbeat{
		{Time: float64(hourStart + 400), Entity: "b.go", ProjectFolder: "/src/app", Language: "Go"},
		{Time: float64(hourStart + 100), Entity: "a.go", ProjectFolder: "/src/app", Language: "Go"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)

	rows := f.rows(t, "u1")
	require.Len(t, rows, 1)
	require.Equal(t, int64(240), rows[0].TimeSpent)
}

func TestRebuilder_SkipsUsersWithoutHeartbeats(t *testing.T) {
	f := newRollupFixture(t)
	ctx := context.Background()

	users := NewUserRepository(f.db)
	require.NoError(t, users.Create(ctx, &user.User{ID: "u1", Name: "Ada", Email: "ada@example.com", CreatedAt: time.Unix(1, 0)}))
	require.NoError(t, users.Create(ctx, &user.User{ID: "u2", Name: "Bo", Email: "bo@example.com", CreatedAt: time.Unix(2, 0)}))

	f.insert(t, "u1",
		beatAt(0, "/src/app", "", "Go"),
		beatAt(3*activity.HourSeconds+5, "/src/app", "", "Go"),
	)

	builder := f.builder(activity.BuilderConfig{Interval: 120})
	report, err := activity.NewRebuilder(users, f.heartbeats, builder, time.Hour, nil).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, activity.RebuildReport{Users: 2, Succeeded: 1, Skipped: 1}, report)

	rows := f.rows(t, "u1")
	require.Len(t, rows, 2)
	require.Equal(t, hourStart+3*activity.HourSeconds, rows[1].Timestamp)
}
