package entity

import (
	"context"
	"time"
)

// UpsertResult tells the caller what the reconciliation store actually did.
type UpsertResult string

const (
	UpsertInserted UpsertResult = "inserted"
	UpsertUpdated  UpsertResult = "updated"
)

type Lead struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	PhoneRaw    string `json:"phone_raw,omitempty"`
	PhoneDigits string `json:"phone_digits,omitempty"`
	IsMobile    bool   `json:"is_mobile"`

	SignupChannel string `json:"signup_channel,omitempty"`
	UTMSource     string `json:"utm_source,omitempty"`
	UTMMedium     string `json:"utm_medium,omitempty"`
	UTMCampaign   string `json:"utm_campaign,omitempty"`
	Referrer      string `json:"referrer,omitempty"`
	LandingPage   string `json:"landing_page,omitempty"`

	SignupTime   time.Time `json:"signup_time"`
	ImportedAt   time.Time `json:"imported_at"`
	LastSyncedAt time.Time `json:"last_synced_at"`

	EmailValid  bool   `json:"email_valid"`
	EmailDomain string `json:"email_domain,omitempty"`
	// PhoneValid is nil when no phone was supplied at all (not evaluated).
	PhoneValid      *bool  `json:"phone_valid,omitempty"`
	IsDuplicate     bool   `json:"is_duplicate"`
	Blacklisted     bool   `json:"blacklisted"`
	BlacklistReason string `json:"blacklist_reason,omitempty"`
	QualityScore    int    `json:"quality_score"`
	ScoringVersion  int    `json:"scoring_version"`

	Forwarded    bool       `json:"forwarded"`
	ForwardedAt  *time.Time `json:"forwarded_at,omitempty"`
	CRMContactID string     `json:"crm_contact_id,omitempty"`

	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ForwardingEligible reports whether this lead may be pushed to the CRM at
// all. Blacklisted leads stay in the store for audit but never leave it.
func (l *Lead) ForwardingEligible() bool {
	return l.EmailValid && !l.Blacklisted
}

type LeadRepositoryInterface interface {

	// Upsert inserts the lead or, if (email, source_id) already exists,
	// touches last_synced_at only. Canonical fields are immutable after the
	// first insert.
	Upsert(ctx context.Context, lead *Lead) (UpsertResult, error)

	GetPendingQualityRescan(ctx context.Context, version, limit int) ([]*Lead, error)

	UpdateQualityScore(ctx context.Context, id string, score, version int) error

	MarkForwarded(ctx context.Context, id, contactID string) error
}
