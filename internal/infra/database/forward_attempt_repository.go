package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/rollingriches/leadsync/internal/entity"
)

type ForwardAttemptRepository struct {
	DB *sql.DB
}

func NewForwardAttemptRepository(db *sql.DB) *ForwardAttemptRepository {
	return &ForwardAttemptRepository{DB: db}
}

func (r *ForwardAttemptRepository) Create(ctx context.Context, a *entity.ForwardAttempt) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO forward_attempts (
			id, lead_id, email, request_body, response_status, response_body,
			attempted_at, completed_at, status, error_message,
			retry_count, next_retry_at, contact_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		a.ID,
		a.LeadID,
		a.Email,
		nullBytes(a.RequestBody),
		a.ResponseStatus,
		nullBytes(a.ResponseBody),
		a.AttemptedAt,
		a.CompletedAt,
		a.Status,
		nullString(a.ErrorMessage),
		a.RetryCount,
		a.NextRetryAt,
		nullString(a.ContactID),
	)
	return err
}

// LatestForLead returns the most recent attempt for a lead, or nil when the
// lead was never attempted.
func (r *ForwardAttemptRepository) LatestForLead(ctx context.Context, leadID string) (*entity.ForwardAttempt, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT
			id, lead_id, email, response_status,
			attempted_at, completed_at, status, error_message,
			retry_count, next_retry_at, contact_id
		FROM forward_attempts
		WHERE lead_id = $1
		ORDER BY attempted_at DESC, id DESC
		LIMIT 1
	`, leadID)

	a, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// LeadsToForward returns leads eligible for a CRM push: never attempted, or
// failed/retry below the retry bound and past next_retry_at. Retry-scheduled
// leads come first, then quality descending, then oldest signup; lead id is
// the final tie-break so a given ledger snapshot always yields the same
// order.
func (r *ForwardAttemptRepository) LeadsToForward(ctx context.Context, maxRetries, limit int) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads l
		LEFT JOIN LATERAL (
			SELECT status, retry_count, next_retry_at
			FROM forward_attempts fa
			WHERE fa.lead_id = l.id
			ORDER BY fa.attempted_at DESC, fa.id DESC
			LIMIT 1
		) latest ON TRUE
		WHERE l.email_valid
		  AND NOT l.blacklisted
		  AND NOT l.forwarded
		  AND (
			latest.status IS NULL
			OR (
				latest.status IN ('failed', 'retry')
				AND latest.retry_count < $1
				AND (latest.next_retry_at IS NULL OR latest.next_retry_at <= NOW())
			)
		  )
		ORDER BY
			CASE WHEN latest.status = 'retry' THEN 0 ELSE 1 END,
			l.quality_score DESC,
			l.signup_time ASC,
			l.id ASC
		LIMIT $2
	`

	rows, err := r.DB.QueryContext(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ScheduleRetries flips the given day's failed attempts that are still below
// the retry bound to 'retry' with immediate eligibility. Returns how many
// rows were marked.
func (r *ForwardAttemptRepository) ScheduleRetries(ctx context.Context, day time.Time, maxRetries int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE forward_attempts
		SET
			status = 'retry',
			next_retry_at = NOW()
		WHERE attempted_at::date = $1::date
		  AND status = 'failed'
		  AND retry_count < $2
	`, day, maxRetries)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Backlog lists leads whose latest attempt failed, with the retry count and
// last error, for the reporting surface.
func (r *ForwardAttemptRepository) Backlog(ctx context.Context, limit int) ([]*BacklogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT
			l.id, l.email, l.quality_score,
			latest.status, latest.retry_count, latest.error_message,
			latest.attempted_at, latest.next_retry_at
		FROM leads l
		JOIN LATERAL (
			SELECT status, retry_count, error_message, attempted_at, next_retry_at
			FROM forward_attempts fa
			WHERE fa.lead_id = l.id
			ORDER BY fa.attempted_at DESC, fa.id DESC
			LIMIT 1
		) latest ON TRUE
		WHERE latest.status IN ('failed', 'retry')
		ORDER BY latest.attempted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*BacklogEntry
	for rows.Next() {
		var (
			e           BacklogEntry
			errMsg      sql.NullString
			nextRetryAt sql.NullTime
		)
		err := rows.Scan(
			&e.LeadID, &e.Email, &e.QualityScore,
			&e.Status, &e.RetryCount, &errMsg,
			&e.LastAttemptAt, &nextRetryAt,
		)
		if err != nil {
			return nil, err
		}
		e.LastError = errMsg.String
		if nextRetryAt.Valid {
			e.NextRetryAt = &nextRetryAt.Time
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

type BacklogEntry struct {
	LeadID        string     `json:"lead_id"`
	Email         string     `json:"email"`
	QualityScore  int        `json:"quality_score"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     string     `json:"last_error,omitempty"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
}

func scanAttempt(row rowScanner) (*entity.ForwardAttempt, error) {
	var (
		a           entity.ForwardAttempt
		respStatus  sql.NullInt64
		completedAt sql.NullTime
		errMsg      sql.NullString
		nextRetryAt sql.NullTime
		contactID   sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.LeadID, &a.Email, &respStatus,
		&a.AttemptedAt, &completedAt, &a.Status, &errMsg,
		&a.RetryCount, &nextRetryAt, &contactID,
	)
	if err != nil {
		return nil, err
	}

	a.ResponseStatus = int(respStatus.Int64)
	a.ErrorMessage = errMsg.String
	a.ContactID = contactID.String
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if nextRetryAt.Valid {
		a.NextRetryAt = &nextRetryAt.Time
	}

	return &a, nil
}

// nullBytes passes JSON snapshots as text so the driver does not send them
// as bytea, which the JSONB columns would reject.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
