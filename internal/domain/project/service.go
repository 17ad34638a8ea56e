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
)

// Service handles project operations.
type Service struct {
	repo   Repository
	locker UserLocker
	logger *slog.Logger
}

// NewService creates a new project service. Re-parenting holds the locker's
// per-user lock so no rollup pass sees the tree mid-change; a nil locker
// skips it.
func NewService(repo Repository, locker UserLocker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, locker: locker, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Folder        string
	Name          string
	AlternateName string
	Description   string
}

// Create registers a project for a folder ahead of any heartbeats.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(req.Folder) == "" {
		return nil, ErrInvalidInput
	}

	name := req.Name
	if strings.TrimSpace(name) == "" {
		name = req.Folder
	}

	now := time.Now()
	proj := &Project{
		ID:            uuid.NewString(),
		UserID:        userID,
		Folder:        req.Folder,
		Name:          name,
		AlternateName: req.AlternateName,
		Description:   req.Description,
		Branches:      []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, userID, proj); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateFolder
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns project summaries with their total tracked time.
func (s *Service) List(ctx context.Context, userID string) ([]ProjectSummary, error) {
	return s.repo.List(ctx, userID)
}

// SetParent re-parents a project, or detaches it when parentID is nil, and
// repoints the root reference of every aggregate row in its subtree.
func (s *Service) SetParent(ctx context.Context, userID, id string, parentID *string) (*Project, error) {
	if s.locker != nil {
		unlock := s.locker.LockUser(userID)
		defer unlock()
	}

	proj, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil && *parentID == "" {
		parentID = nil
	}

	newRoot := proj.ID
	if parentID != nil {
		if *parentID == proj.ID {
			return nil, ErrCycle
		}
		parent, err := s.Get(ctx, userID, *parentID)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNotAncestor(ctx, userID, proj.ID, parent); err != nil {
			return nil, err
		}
		newRoot, err = findRoot(ctx, s.repo, userID, parent)
		if err != nil {
			return nil, err
		}
	}

	subtree, err := s.subtree(ctx, userID, proj.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Reparent(ctx, userID, proj.ID, parentID, subtree, newRoot); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("re-parenting project: %w", err)
	}

	s.logger.Info("project re-parented", "user_id", userID, "project_id", proj.ID, "root_id", newRoot, "subtree", len(subtree))
	proj.ParentID = parentID
	return proj, nil
}

// ensureNotAncestor fails when id already appears above candidate.
func (s *Service) ensureNotAncestor(ctx context.Context, userID, id string, candidate *Project) error {
	current := candidate
	for depth := 0; !current.IsRoot() && depth < maxParentDepth; depth++ {
		if *current.ParentID == id {
			return ErrCycle
		}
		next, err := s.repo.Get(ctx, userID, *current.ParentID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading ancestor: %w", err)
		}
		current = next
	}
	return nil
}

func (s *Service) subtree(ctx context.Context, userID, id string) ([]string, error) {
	ids := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(ids); i++ {
		children, err := s.repo.ListChildren(ctx, userID, ids[i])
		if err != nil {
			return nil, fmt.Errorf("listing child projects: %w", err)
		}
		for _, child := range children {
			if !seen[child.ID] {
				seen[child.ID] = true
				ids = append(ids, child.ID)
			}
		}
	}
	return ids, nil
}
