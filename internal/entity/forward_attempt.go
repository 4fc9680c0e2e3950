package entity

import "time"

const (
	AttemptPending = "pending"
	AttemptSuccess = "success"
	AttemptFailed  = "failed"
	AttemptRetry   = "retry"
)

// ForwardAttempt is one CRM push for one lead. The latest attempt per lead
// determines the lead's current forwarding state.
type ForwardAttempt struct {
	ID     string `json:"id"`
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`

	RequestBody    []byte     `json:"request_body,omitempty"`
	ResponseStatus int        `json:"response_status,omitempty"`
	ResponseBody   []byte     `json:"response_body,omitempty"`
	AttemptedAt    time.Time  `json:"attempted_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RetryCount   int        `json:"retry_count"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`

	// Contact id assigned by the CRM on success.
	ContactID string `json:"contact_id,omitempty"`
}
