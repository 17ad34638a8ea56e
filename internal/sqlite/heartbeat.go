package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/repository"
)

// HeartbeatRepository stores raw heartbeats in SQLite
type HeartbeatRepository struct {
	db  *DB
	uow UnitOfWork
}

// NewHeartbeatRepository creates a new HeartbeatRepository
func NewHeartbeatRepository(db *DB) *HeartbeatRepository {
	return &HeartbeatRepository{db: db, uow: NewUnitOfWork(db)}
}

const heartbeatColumns = `
	id, user_id, time, entity, is_write, lineno, cursorpos, lines_in_file,
	alternate_project, git_branch, project_folder, project_root_count,
	language, category, ai_line_changes, human_line_changes,
	is_unsaved_entity, created_at`

// InsertBatch stores all heartbeats of a batch or none of them
func (r *HeartbeatRepository) InsertBatch(ctx context.Context, userID string, beats []heartbeat.Heartbeat) error {
	query := `INSERT INTO heartbeats (` + heartbeatColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		for i := range beats {
			hb := &beats[i]
			createdAt := hb.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			_, err := tx.ExecContext(ctx, query,
				hb.ID,
				userID,
				hb.Time,
				hb.Entity,
				hb.IsWrite,
				hb.LineNo,
				hb.CursorPos,
				hb.LinesInFile,
				hb.AlternateProject,
				hb.GitBranch,
				hb.ProjectFolder,
				nullInt(hb.ProjectRootCount),
				hb.Language,
				string(hb.Category),
				nullInt(hb.AILineChanges),
				nullInt(hb.HumanLineChanges),
				hb.IsUnsavedEntity,
				createdAt,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return repository.ErrDuplicate
				}
				return fmt.Errorf("failed to insert heartbeat: %w", err)
			}
		}
		return nil
	})
}

// ListRange returns the user's heartbeats with start <= time < end, oldest first
func (r *HeartbeatRepository) ListRange(ctx context.Context, userID string, start, end float64) ([]heartbeat.Heartbeat, error) {
	query := `SELECT ` + heartbeatColumns + `
		FROM heartbeats
		WHERE user_id = ? AND time >= ? AND time < ?
		ORDER BY time ASC, rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list heartbeats: %w", err)
	}
	defer rows.Close()

	var beats []heartbeat.Heartbeat
	for rows.Next() {
		hb, err := scanHeartbeat(rows)
		if err != nil {
			return nil, err
		}
		beats = append(beats, *hb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating heartbeat rows: %w", err)
	}

	return beats, nil
}

// Bounds returns the earliest and latest heartbeat time for the user
func (r *HeartbeatRepository) Bounds(ctx context.Context, userID string) (heartbeat.Bounds, error) {
	var earliest, latest sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(time), MAX(time) FROM heartbeats WHERE user_id = ?`,
		userID,
	).Scan(&earliest, &latest)
	if err != nil {
		return heartbeat.Bounds{}, fmt.Errorf("failed to get heartbeat bounds: %w", err)
	}
	if !earliest.Valid || !latest.Valid {
		return heartbeat.Bounds{}, repository.ErrNotFound
	}
	return heartbeat.Bounds{Min: earliest.Float64, Max: latest.Float64}, nil
}

func scanHeartbeat(rows *sql.Rows) (*heartbeat.Heartbeat, error) {
	var (
		hb                          heartbeat.Heartbeat
		lineNo, cursorPos, lines    sql.NullInt64
		rootCount, aiLines, huLines sql.NullInt64
		category                    string
	)
	err := rows.Scan(
		&hb.ID,
		&hb.UserID,
		&hb.Time,
		&hb.Entity,
		&hb.IsWrite,
		&lineNo,
		&cursorPos,
		&lines,
		&hb.AlternateProject,
		&hb.GitBranch,
		&hb.ProjectFolder,
		&rootCount,
		&hb.Language,
		&category,
		&aiLines,
		&huLines,
		&hb.IsUnsavedEntity,
		&hb.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan heartbeat: %w", err)
	}

	hb.LineNo = int(lineNo.Int64)
	hb.CursorPos = int(cursorPos.Int64)
	hb.LinesInFile = int(lines.Int64)
	hb.ProjectRootCount = intPtr(rootCount)
	hb.AILineChanges = intPtr(aiLines)
	hb.HumanLineChanges = intPtr(huLines)
	hb.Category = heartbeat.Category(category)
	return &hb, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
