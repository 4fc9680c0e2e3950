package database

import (
	"context"
	"database/sql"

	"github.com/rollingriches/leadsync/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `
	id, email, source_id, source_name, first_name, last_name,
	phone_raw, phone_digits, is_mobile,
	signup_channel, utm_source, utm_medium, utm_campaign, referrer, landing_page,
	signup_time, imported_at, last_synced_at,
	email_valid, email_domain, phone_valid, is_duplicate,
	blacklisted, blacklist_reason, quality_score, scoring_version,
	forwarded, forwarded_at, crm_contact_id, processed, processed_at
`

// Upsert inserts a new lead or, when (email, source_id) already exists,
// only refreshes last_synced_at. A concurrent duplicate insert lands on the
// same ON CONFLICT path, so duplicate delivery from the source never errors.
// The xmax trick distinguishes a fresh insert from a conflict update.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) (entity.UpsertResult, error) {
	query := `
		INSERT INTO leads (
			id, email, source_id, source_name, first_name, last_name,
			phone_raw, phone_digits, is_mobile,
			signup_channel, utm_source, utm_medium, utm_campaign, referrer, landing_page,
			signup_time, email_valid, email_domain, phone_valid, is_duplicate,
			blacklisted, blacklist_reason, quality_score, scoring_version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		ON CONFLICT (email, source_id)
		DO UPDATE SET last_synced_at = NOW()
		RETURNING id, imported_at, last_synced_at, forwarded, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.DB.QueryRowContext(
		ctx,
		query,
		lead.ID,
		lead.Email,
		lead.SourceID,
		lead.SourceName,
		nullString(lead.FirstName),
		nullString(lead.LastName),
		nullString(lead.PhoneRaw),
		nullString(lead.PhoneDigits),
		lead.IsMobile,
		nullString(lead.SignupChannel),
		nullString(lead.UTMSource),
		nullString(lead.UTMMedium),
		nullString(lead.UTMCampaign),
		nullString(lead.Referrer),
		nullString(lead.LandingPage),
		lead.SignupTime,
		lead.EmailValid,
		nullString(lead.EmailDomain),
		lead.PhoneValid,
		lead.IsDuplicate,
		lead.Blacklisted,
		nullString(lead.BlacklistReason),
		lead.QualityScore,
		lead.ScoringVersion,
	).Scan(
		&lead.ID,
		&lead.ImportedAt,
		&lead.LastSyncedAt,
		&lead.Forwarded,
		&inserted,
	)
	if err != nil {
		return "", err
	}

	if inserted {
		return entity.UpsertInserted, nil
	}
	lead.IsDuplicate = true
	return entity.UpsertUpdated, nil
}

// GetPendingQualityRescan returns leads scored with an older rule set than
// the given version, for idempotent re-scoring.
func (r *LeadRepository) GetPendingQualityRescan(ctx context.Context, version, limit int) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads
		WHERE scoring_version < $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.DB.QueryContext(ctx, query, version, limit)
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

func (r *LeadRepository) UpdateQualityScore(ctx context.Context, id string, score, version int) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE leads
		SET quality_score = $2, scoring_version = $3
		WHERE id = $1
	`, id, score, version)
	return err
}

func (r *LeadRepository) MarkForwarded(ctx context.Context, id, contactID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE leads
		SET
			forwarded = TRUE,
			forwarded_at = NOW(),
			crm_contact_id = $2,
			processed = TRUE,
			processed_at = NOW()
		WHERE id = $1
	`, id, contactID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead            entity.Lead
		firstName       sql.NullString
		lastName        sql.NullString
		phoneRaw        sql.NullString
		phoneDigits     sql.NullString
		signupChannel   sql.NullString
		utmSource       sql.NullString
		utmMedium       sql.NullString
		utmCampaign     sql.NullString
		referrer        sql.NullString
		landingPage     sql.NullString
		emailDomain     sql.NullString
		phoneValid      sql.NullBool
		blacklistReason sql.NullString
		forwardedAt     sql.NullTime
		contactID       sql.NullString
		processedAt     sql.NullTime
	)

	err := row.Scan(
		&lead.ID, &lead.Email, &lead.SourceID, &lead.SourceName,
		&firstName, &lastName,
		&phoneRaw, &phoneDigits, &lead.IsMobile,
		&signupChannel, &utmSource, &utmMedium, &utmCampaign, &referrer, &landingPage,
		&lead.SignupTime, &lead.ImportedAt, &lead.LastSyncedAt,
		&lead.EmailValid, &emailDomain, &phoneValid, &lead.IsDuplicate,
		&lead.Blacklisted, &blacklistReason, &lead.QualityScore, &lead.ScoringVersion,
		&lead.Forwarded, &forwardedAt, &contactID, &lead.Processed, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.FirstName = firstName.String
	lead.LastName = lastName.String
	lead.PhoneRaw = phoneRaw.String
	lead.PhoneDigits = phoneDigits.String
	lead.SignupChannel = signupChannel.String
	lead.UTMSource = utmSource.String
	lead.UTMMedium = utmMedium.String
	lead.UTMCampaign = utmCampaign.String
	lead.Referrer = referrer.String
	lead.LandingPage = landingPage.String
	lead.EmailDomain = emailDomain.String
	lead.BlacklistReason = blacklistReason.String
	lead.CRMContactID = contactID.String
	if phoneValid.Valid {
		lead.PhoneValid = &phoneValid.Bool
	}
	if forwardedAt.Valid {
		lead.ForwardedAt = &forwardedAt.Time
	}
	if processedAt.Valid {
		lead.ProcessedAt = &processedAt.Time
	}

	return &lead, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
