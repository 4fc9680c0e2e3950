package entity

import "time"

const (
	SyncRunRunning   = "running"
	SyncRunCompleted = "completed"
	SyncRunFailed    = "failed"
)

// SyncRun is the audit record of one orchestrator cycle. It is created at
// cycle start and finalized exactly once at cycle end.
type SyncRun struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Fetched       int `json:"fetched"`
	Inserted      int `json:"inserted"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
	Errored       int `json:"errored"`
	Forwarded     int `json:"forwarded"`
	ForwardFailed int `json:"forward_failed"`

	Status      string `json:"status"`
	ErrorDetail string `json:"error_detail,omitempty"`
}
