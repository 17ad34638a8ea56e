package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/samber/lo"
)

// UnknownFolder is the folder used for heartbeats that carry none.
const UnknownFolder = "unknown"

const maxParentDepth = 32

// Resolved is the identity a heartbeat's folder maps to.
type Resolved struct {
	ID     string
	RootID string
}

type resolvedProject struct {
	Resolved
	known map[string]struct{}
	added []string
}

// Resolver maps folders to projects for one rollup pass, creating projects
// on first sighting. Branch observations are buffered and written once by
// Flush. A Resolver is not safe for concurrent use and must not outlive the
// pass it was created for.
type Resolver struct {
	repo     ResolverRepository
	userID   string
	logger   *slog.Logger
	now      func() time.Time
	byFolder map[string]*resolvedProject
}

// NewResolver creates a resolver scoped to one user.
func NewResolver(repo ResolverRepository, userID string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		repo:     repo,
		userID:   userID,
		logger:   logger,
		now:      time.Now,
		byFolder: make(map[string]*resolvedProject),
	}
}

// Resolve returns the project for folder, creating it if the user has none.
// A non-empty branch not yet known for the project is queued for Flush.
func (r *Resolver) Resolve(ctx context.Context, folder, altName, branch string) (Resolved, error) {
	if strings.TrimSpace(folder) == "" {
		folder = UnknownFolder
	}

	rp, ok := r.byFolder[folder]
	if !ok {
		proj, err := r.lookupOrCreate(ctx, folder, altName)
		if err != nil {
			return Resolved{}, err
		}
		root, err := findRoot(ctx, r.repo, r.userID, proj)
		if err != nil {
			return Resolved{}, err
		}
		rp = &resolvedProject{
			Resolved: Resolved{ID: proj.ID, RootID: root},
			known:    lo.SliceToMap(proj.Branches, func(b string) (string, struct{}) { return b, struct{}{} }),
		}
		r.byFolder[folder] = rp
	}

	if branch != "" {
		if _, seen := rp.known[branch]; !seen {
			rp.known[branch] = struct{}{}
			rp.added = append(rp.added, branch)
		}
	}

	return rp.Resolved, nil
}

// Projects returns how many distinct projects were resolved so far.
func (r *Resolver) Projects() int {
	return len(r.byFolder)
}

// Flush writes every newly observed branch in a single batch.
func (r *Resolver) Flush(ctx context.Context) error {
	pending := make(map[string][]string)
	for _, rp := range r.byFolder {
		if len(rp.added) > 0 {
			pending[rp.ID] = append([]string(nil), rp.added...)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	if err := r.repo.AppendBranches(ctx, r.userID, pending); err != nil {
		return fmt.Errorf("flushing project branches: %w", err)
	}
	for _, rp := range r.byFolder {
		rp.added = nil
	}
	return nil
}

func (r *Resolver) lookupOrCreate(ctx context.Context, folder, altName string) (*Project, error) {
	proj, err := r.repo.GetByFolder(ctx, r.userID, folder)
	if err == nil {
		return proj, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up project %q: %w", folder, err)
	}

	name := altName
	if strings.TrimSpace(name) == "" {
		name = folder
	}
	now := r.now()
	proj = &Project{
		ID:            uuid.NewString(),
		UserID:        r.userID,
		Folder:        folder,
		Name:          name,
		AlternateName: altName,
		Branches:      []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = r.repo.Create(ctx, r.userID, proj)
	if err == nil {
		r.logger.Debug("project created", "user_id", r.userID, "project_id", proj.ID, "folder", folder)
		return proj, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("creating project %q: %w", folder, err)
	}

	// Another pass created it first; use theirs.
	existing, err := r.repo.GetByFolder(ctx, r.userID, folder)
	if err != nil {
		return nil, fmt.Errorf("re-reading project %q: %w", folder, err)
	}
	return existing, nil
}

type projectGetter interface {
	Get(ctx context.Context, userID, id string) (*Project, error)
}

// findRoot walks the parent chain to the topmost ancestor. A dangling or
// cyclic chain stops at the last project reached.
func findRoot(ctx context.Context, repo projectGetter, userID string, proj *Project) (string, error) {
	current := proj
	visited := map[string]bool{proj.ID: true}
	for depth := 0; !current.IsRoot() && depth < maxParentDepth; depth++ {
		parent, err := repo.Get(ctx, userID, *current.ParentID)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("loading parent of project %s: %w", current.ID, err)
		}
		if visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		current = parent
	}
	return current.ID, nil
}
