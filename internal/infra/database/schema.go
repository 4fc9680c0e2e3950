package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		source_id TEXT NOT NULL,
		source_name TEXT NOT NULL DEFAULT 'wordpress',
		first_name TEXT,
		last_name TEXT,
		phone_raw TEXT,
		phone_digits TEXT,
		is_mobile BOOLEAN NOT NULL DEFAULT FALSE,
		signup_channel TEXT,
		utm_source TEXT,
		utm_medium TEXT,
		utm_campaign TEXT,
		referrer TEXT,
		landing_page TEXT,
		signup_time TIMESTAMPTZ NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		email_valid BOOLEAN NOT NULL DEFAULT FALSE,
		email_domain TEXT,
		phone_valid BOOLEAN,
		is_duplicate BOOLEAN NOT NULL DEFAULT FALSE,
		blacklisted BOOLEAN NOT NULL DEFAULT FALSE,
		blacklist_reason TEXT,
		quality_score INT NOT NULL DEFAULT 0,
		scoring_version INT NOT NULL DEFAULT 1,
		forwarded BOOLEAN NOT NULL DEFAULT FALSE,
		forwarded_at TIMESTAMPTZ,
		crm_contact_id TEXT,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		processed_at TIMESTAMPTZ,
		UNIQUE (email, source_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_signup_time ON leads (signup_time)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_quality ON leads (quality_score)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_forwarded ON leads (forwarded)`,

	`CREATE TABLE IF NOT EXISTS sync_runs (
		id UUID PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		fetched INT NOT NULL DEFAULT 0,
		inserted INT NOT NULL DEFAULT 0,
		updated INT NOT NULL DEFAULT 0,
		skipped INT NOT NULL DEFAULT 0,
		errored INT NOT NULL DEFAULT 0,
		forwarded INT NOT NULL DEFAULT 0,
		forward_failed INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'running',
		error_detail TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs (started_at)`,

	`CREATE TABLE IF NOT EXISTS forward_attempts (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
		email TEXT NOT NULL,
		request_body JSONB,
		response_status INT,
		response_body JSONB,
		attempted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		retry_count INT NOT NULL DEFAULT 0,
		next_retry_at TIMESTAMPTZ,
		contact_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_lead ON forward_attempts (lead_id, attempted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_retry ON forward_attempts (status, next_retry_at)`,

	`CREATE TABLE IF NOT EXISTS blacklist_rules (
		id SERIAL PRIMARY KEY,
		pattern TEXT NOT NULL UNIQUE,
		reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS sync_checkpoint (
		id INT PRIMARY KEY CHECK (id = 1),
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var defaultBlacklist = [][2]string{
	{"test@*", "Test emails"},
	{"*@example.com", "Example domain"},
	{"*@test.*", "Test domains"},
}

// EnsureSchema creates all tables and indexes if they do not exist and seeds
// the default blacklist patterns. Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}

	for _, entry := range defaultBlacklist {
		_, err := db.ExecContext(ctx, `
			INSERT INTO blacklist_rules (pattern, reason)
			VALUES ($1, $2)
			ON CONFLICT (pattern) DO NOTHING
		`, entry[0], entry[1])
		if err != nil {
			return fmt.Errorf("blacklist seed failed: %w", err)
		}
	}

	return nil
}
