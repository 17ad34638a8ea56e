package project_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/rpggio/chronos/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolver_CreatesOnFirstSighting(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", "/src/app").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", ctx, "u1", mock.MatchedBy(func(p *project.Project) bool {
		return p.Folder == "/src/app" && p.Name == "app" && p.AlternateName == "app" && len(p.Branches) == 0
	})).Return(nil).Once()

	r := project.NewResolver(repo, "u1", nil)
	first, err := r.Resolve(ctx, "/src/app", "app", "")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, first.ID, first.RootID)

	// Cached for the rest of the pass.
	again, err := r.Resolve(ctx, "/src/app", "app", "")
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Equal(t, 1, r.Projects())

	repo.AssertExpectations(t)
}

func TestResolver_EmptyFolderIsUnknown(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", project.UnknownFolder).Return(&project.Project{ID: "unk", Folder: project.UnknownFolder}, nil)

	r := project.NewResolver(repo, "u1", nil)
	got, err := r.Resolve(ctx, "", "", "")
	require.NoError(t, err)
	require.Equal(t, project.Resolved{ID: "unk", RootID: "unk"}, got)
}

func TestResolver_RecoversFromConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	winner := &project.Project{ID: "winner", Folder: "/src/app"}

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", "/src/app").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", ctx, "u1", mock.Anything).Return(repository.ErrDuplicate).Once()
	repo.On("GetByFolder", ctx, "u1", "/src/app").Return(winner, nil).Once()

	r := project.NewResolver(repo, "u1", nil)
	got, err := r.Resolve(ctx, "/src/app", "", "")
	require.NoError(t, err)
	require.Equal(t, "winner", got.ID)
	repo.AssertExpectations(t)
}

func TestResolver_WalksToRoot(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", "/src/app/web").Return(&project.Project{ID: "web", ParentID: strPtr("app")}, nil)
	repo.On("Get", ctx, "u1", "app").Return(&project.Project{ID: "app", ParentID: strPtr("src")}, nil)
	repo.On("Get", ctx, "u1", "src").Return(&project.Project{ID: "src"}, nil)

	r := project.NewResolver(repo, "u1", nil)
	got, err := r.Resolve(ctx, "/src/app/web", "", "")
	require.NoError(t, err)
	require.Equal(t, project.Resolved{ID: "web", RootID: "src"}, got)
}

func TestResolver_StopsOnCycleAndDanglingParent(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", "/a").Return(&project.Project{ID: "a", ParentID: strPtr("b")}, nil)
	repo.On("Get", ctx, "u1", "b").Return(&project.Project{ID: "b", ParentID: strPtr("a")}, nil)
	repo.On("Get", ctx, "u1", "a").Return(&project.Project{ID: "a", ParentID: strPtr("b")}, nil)
	repo.On("GetByFolder", ctx, "u1", "/c").Return(&project.Project{ID: "c", ParentID: strPtr("gone")}, nil)
	repo.On("Get", ctx, "u1", "gone").Return(nil, repository.ErrNotFound)

	r := project.NewResolver(repo, "u1", nil)
	got, err := r.Resolve(ctx, "/a", "", "")
	require.NoError(t, err)
	require.Equal(t, "b", got.RootID)

	got, err = r.Resolve(ctx, "/c", "", "")
	require.NoError(t, err)
	require.Equal(t, "c", got.RootID)
}

func TestResolver_FlushesNewBranchesOnce(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", "/src/app").Return(&project.Project{ID: "p1", Branches: []string{"main"}}, nil)
	repo.On("AppendBranches", ctx, "u1", map[string][]string{"p1": {"feature", "fix"}}).Return(nil).Once()

	r := project.NewResolver(repo, "u1", nil)
	for _, branch := range []string{"main", "feature", "", "feature", "fix"} {
		_, err := r.Resolve(ctx, "/src/app", "", branch)
		require.NoError(t, err)
	}

	require.NoError(t, r.Flush(ctx))
	// Nothing left to write.
	require.NoError(t, r.Flush(ctx))
	repo.AssertExpectations(t)
}

func TestResolver_FlushError(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("GetByFolder", ctx, "u1", "/src/app").Return(&project.Project{ID: "p1"}, nil)
	repo.On("AppendBranches", ctx, "u1", mock.Anything).Return(errors.New("locked"))

	r := project.NewResolver(repo, "u1", nil)
	_, err := r.Resolve(ctx, "/src/app", "", "main")
	require.NoError(t, err)
	require.ErrorContains(t, r.Flush(ctx), "locked")
}
