package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rollingriches/leadsync/internal/entity"
)

type SyncRunRepository struct {
	DB *sql.DB
}

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{DB: db}
}

// Start creates the audit row for a cycle with status=running.
func (r *SyncRunRepository) Start(ctx context.Context) (*entity.SyncRun, error) {
	run := &entity.SyncRun{
		ID:     uuid.New().String(),
		Status: entity.SyncRunRunning,
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO sync_runs (id, status)
		VALUES ($1, $2)
		RETURNING started_at
	`, run.ID, run.Status).Scan(&run.StartedAt)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// Finish writes the terminal state of a run. Runs are never mutated after
// this call.
func (r *SyncRunRepository) Finish(ctx context.Context, run *entity.SyncRun) error {
	now := time.Now()
	run.CompletedAt = &now

	_, err := r.DB.ExecContext(ctx, `
		UPDATE sync_runs
		SET
			completed_at = $2,
			fetched = $3,
			inserted = $4,
			updated = $5,
			skipped = $6,
			errored = $7,
			forwarded = $8,
			forward_failed = $9,
			status = $10,
			error_detail = $11
		WHERE id = $1
	`,
		run.ID,
		run.CompletedAt,
		run.Fetched,
		run.Inserted,
		run.Updated,
		run.Skipped,
		run.Errored,
		run.Forwarded,
		run.ForwardFailed,
		run.Status,
		nullString(run.ErrorDetail),
	)
	return err
}

func (r *SyncRunRepository) History(ctx context.Context, limit int) ([]*entity.SyncRun, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT
			id, started_at, completed_at,
			fetched, inserted, updated, skipped, errored, forwarded, forward_failed,
			status, error_detail
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*entity.SyncRun
	for rows.Next() {
		var (
			run         entity.SyncRun
			completedAt sql.NullTime
			errorDetail sql.NullString
		)
		err := rows.Scan(
			&run.ID, &run.StartedAt, &completedAt,
			&run.Fetched, &run.Inserted, &run.Updated, &run.Skipped,
			&run.Errored, &run.Forwarded, &run.ForwardFailed,
			&run.Status, &errorDetail,
		)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.ErrorDetail = errorDetail.String
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
