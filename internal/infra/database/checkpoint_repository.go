package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CheckpointRepository persists the single scalar sync checkpoint: the
// maximum signup_time observed by the last completed cycle. Losing it only
// costs a full re-fetch; upserts keep that safe.
type CheckpointRepository struct {
	DB *sql.DB
}

func NewCheckpointRepository(db *sql.DB) *CheckpointRepository {
	return &CheckpointRepository{DB: db}
}

func (r *CheckpointRepository) Get(ctx context.Context) (time.Time, bool, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `
		SELECT value FROM sync_checkpoint WHERE id = 1
	`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt checkpoint %q: %w", value, err)
	}
	return t, true, nil
}

func (r *CheckpointRepository) Set(ctx context.Context, value time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sync_checkpoint (id, value, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, value.UTC().Format(time.RFC3339Nano))
	return err
}
