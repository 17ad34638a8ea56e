package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/samber/lo"
)

// ActivityRepository stores hourly aggregates and serves reporting reads
type ActivityRepository struct {
	db  *DB
	uow UnitOfWork
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db, uow: NewUnitOfWork(db)}
}

// Upsert inserts the row for a new (user, composite key) and then sets its
// time. An existing row keeps its id and dimensions; only time_spent moves.
func (r *ActivityRepository) Upsert(ctx context.Context, row *activity.HourlyActivity) error {
	now := time.Now()

	return r.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO hourly_activities (
				id, user_id, timestamp, composite_key, project_id, root_project_id,
				git_branch, language, category, time_spent, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, composite_key) DO NOTHING`,
			row.ID,
			row.UserID,
			row.Timestamp,
			row.CompositeKey,
			row.ProjectID,
			row.RootProjectID,
			row.Branch,
			row.Language,
			row.Category,
			row.TimeSpent,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert hourly activity: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE hourly_activities
			SET time_spent = ?, updated_at = ?
			WHERE user_id = ? AND composite_key = ?`,
			row.TimeSpent, now, row.UserID, row.CompositeKey,
		); err != nil {
			return fmt.Errorf("failed to update hourly activity: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			SELECT id, created_at FROM hourly_activities
			WHERE user_id = ? AND composite_key = ?`,
			row.UserID, row.CompositeKey,
		).Scan(&row.ID, &row.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to read back hourly activity: %w", err)
		}
		row.UpdatedAt = now
		return nil
	})
}

// rewriteRoot repoints the root project of every row owned by projectIDs
func rewriteRoot(ctx context.Context, tx DBTX, userID string, projectIDs []string, rootID string) error {
	projectIDs = lo.Uniq(projectIDs)
	if len(projectIDs) == 0 {
		return nil
	}

	args := make([]any, 0, len(projectIDs)+3)
	args = append(args, rootID, time.Now(), userID)
	for _, id := range projectIDs {
		args = append(args, id)
	}
	query := `UPDATE hourly_activities
		SET root_project_id = ?, updated_at = ?
		WHERE user_id = ? AND project_id IN (` + placeholders(len(projectIDs)) + `)`

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to rewrite root project: %w", err)
	}
	return nil
}

const summarySelect = `
	SELECT
		h.timestamp,
		h.time_spent,
		h.project_id,
		h.root_project_id,
		COALESCE(rp.name, ''),
		h.git_branch,
		h.language,
		h.category
	FROM hourly_activities h
	LEFT JOIN projects rp ON rp.id = h.root_project_id`

// ListRange returns the user's rows with start <= timestamp <= end
func (r *ActivityRepository) ListRange(ctx context.Context, userID string, start, end int64) ([]summary.Activity, error) {
	query := summarySelect + `
		WHERE h.user_id = ? AND h.timestamp >= ? AND h.timestamp <= ?
		ORDER BY h.timestamp ASC, h.created_at ASC`
	return r.listSummary(ctx, query, userID, start, end)
}

// ListRangeForProject returns rows of a project or of anything rolled up under it
func (r *ActivityRepository) ListRangeForProject(ctx context.Context, userID, projectID string, start, end int64) ([]summary.Activity, error) {
	query := summarySelect + `
		WHERE h.user_id = ?
			AND (h.project_id = ? OR h.root_project_id = ?)
			AND h.timestamp >= ? AND h.timestamp <= ?
		ORDER BY h.timestamp ASC, h.created_at ASC`
	return r.listSummary(ctx, query, userID, projectID, projectID, start, end)
}

// TotalTime returns the sum of all the user's tracked seconds
func (r *ActivityRepository) TotalTime(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(time_spent), 0) FROM hourly_activities WHERE user_id = ?`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum activity: %w", err)
	}
	return total, nil
}

func (r *ActivityRepository) listSummary(ctx context.Context, query string, args ...any) ([]summary.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var out []summary.Activity
	for rows.Next() {
		var (
			act      summary.Activity
			rootID   sql.NullString
			rootName string
		)
		err := rows.Scan(
			&act.Timestamp,
			&act.TimeSpent,
			&act.ProjectID,
			&rootID,
			&rootName,
			&act.Branch,
			&act.Language,
			&act.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if rootID.Valid && rootID.String != "" {
			act.RootProject = &summary.ProjectRef{ID: rootID.String, Name: rootName}
		}
		out = append(out, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
