package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/samber/lo"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db  *DB
	uow UnitOfWork
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db, uow: NewUnitOfWork(db)}
}

const projectColumns = `
	id, user_id, project_folder, name, alternate_project, parent_id,
	description, git_branches, is_favorite, is_archived, created_at, updated_at`

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, userID string, proj *project.Project) error {
	now := time.Now()
	if proj.CreatedAt.IsZero() {
		proj.CreatedAt = now
	}
	if proj.UpdatedAt.IsZero() {
		proj.UpdatedAt = proj.CreatedAt
	}
	branches, err := encodeBranches(proj.Branches)
	if err != nil {
		return err
	}

	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		proj.ID,
		userID,
		proj.Folder,
		proj.Name,
		proj.AlternateName,
		proj.ParentID,
		proj.Description,
		branches,
		proj.Favorite,
		proj.Archived,
		proj.CreatedAt,
		proj.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	proj.UserID = userID
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND user_id = ?`
	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// GetByFolder retrieves a project by its folder
func (r *ProjectRepository) GetByFolder(ctx context.Context, userID, folder string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? AND project_folder = ?`
	proj, err := scanProject(r.db.QueryRowContext(ctx, query, userID, folder))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by folder: %w", err)
	}
	return proj, nil
}

// AppendBranches appends branch names not yet stored on each project. The
// stored list is otherwise left as is.
func (r *ProjectRepository) AppendBranches(ctx context.Context, userID string, branches map[string][]string) error {
	if len(branches) == 0 {
		return nil
	}

	ids := lo.Keys(branches)
	sort.Strings(ids)

	return r.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		for _, id := range ids {
			var raw string
			err := tx.QueryRowContext(ctx,
				`SELECT git_branches FROM projects WHERE id = ? AND user_id = ?`,
				id, userID,
			).Scan(&raw)
			if err == sql.ErrNoRows {
				return repository.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to load project branches: %w", err)
			}

			current, err := decodeBranches(raw)
			if err != nil {
				return err
			}
			added := lo.Without(lo.Uniq(lo.Compact(branches[id])), current...)
			if len(added) == 0 {
				continue
			}

			encoded, err := encodeBranches(append(current, added...))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET git_branches = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				encoded, time.Now(), id, userID,
			); err != nil {
				return fmt.Errorf("failed to update project branches: %w", err)
			}
		}
		return nil
	})
}

// List returns all projects for a user with their tracked time
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id,
			p.name,
			p.project_folder,
			p.parent_id,
			p.is_favorite,
			p.is_archived,
			COALESCE(SUM(h.time_spent), 0) AS total_time_spent
		FROM projects p
		LEFT JOIN hourly_activities h ON h.project_id = p.id AND h.user_id = p.user_id
		WHERE p.user_id = ?
		GROUP BY p.id, p.name, p.project_folder, p.parent_id, p.is_favorite, p.is_archived
		ORDER BY p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.ProjectSummary
	for rows.Next() {
		var (
			summary project.ProjectSummary
			parent  sql.NullString
		)
		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Folder,
			&parent,
			&summary.Favorite,
			&summary.Archived,
			&summary.TimeSpent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summary.ParentID = stringPtr(parent)
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// ListChildren returns the direct children of a project
func (r *ProjectRepository) ListChildren(ctx context.Context, userID, parentID string) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE user_id = ? AND parent_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list child projects: %w", err)
	}
	defer rows.Close()

	var children []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child project: %w", err)
		}
		children = append(children, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating child project rows: %w", err)
	}

	return children, nil
}

// Reparent points a project at a new parent, or detaches it when parentID is
// nil, and repoints the root of the subtree's aggregate rows. Either both
// changes land or neither does.
func (r *ProjectRepository) Reparent(ctx context.Context, userID, id string, parentID *string, subtree []string, rootID string) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE projects SET parent_id = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			parentID, time.Now(), id, userID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to set project parent: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return repository.ErrNotFound
		}

		return rewriteRoot(ctx, tx, userID, subtree, rootID)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj     project.Project
		parent   sql.NullString
		branches string
	)
	err := row.Scan(
		&proj.ID,
		&proj.UserID,
		&proj.Folder,
		&proj.Name,
		&proj.AlternateName,
		&parent,
		&proj.Description,
		&branches,
		&proj.Favorite,
		&proj.Archived,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	proj.ParentID = stringPtr(parent)
	proj.Branches, err = decodeBranches(branches)
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

func encodeBranches(branches []string) (string, error) {
	if branches == nil {
		branches = []string{}
	}
	data, err := json.Marshal(branches)
	if err != nil {
		return "", fmt.Errorf("failed to encode branches: %w", err)
	}
	return string(data), nil
}

func decodeBranches(raw string) ([]string, error) {
	branches := []string{}
	if raw == "" {
		return branches, nil
	}
	if err := json.Unmarshal([]byte(raw), &branches); err != nil {
		return nil, fmt.Errorf("failed to decode branches: %w", err)
	}
	return branches, nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}
