package usecase

import (
	"fmt"
	"time"

	"github.com/rollingriches/leadsync/internal/entity"
)

// ForwardState is a lead's position in the forwarding state machine,
// derived from its latest attempt:
//
//	NEVER_ATTEMPTED → PENDING → {SUCCESS | FAILED}
//	FAILED → RETRY_SCHEDULED → PENDING → {SUCCESS | FAILED}
//
// SUCCESS is terminal. FAILED becomes terminal once retry_count reaches the
// bound.
type ForwardState string

const (
	StateNeverAttempted ForwardState = "never_attempted"
	StatePending        ForwardState = "pending"
	StateSuccess        ForwardState = "success"
	StateFailed         ForwardState = "failed"
	StateRetryScheduled ForwardState = "retry_scheduled"
)

// DeriveState maps the latest ledger row (nil = no row) to a state.
func DeriveState(latest *entity.ForwardAttempt) ForwardState {
	if latest == nil {
		return StateNeverAttempted
	}
	switch latest.Status {
	case entity.AttemptPending:
		return StatePending
	case entity.AttemptSuccess:
		return StateSuccess
	case entity.AttemptRetry:
		return StateRetryScheduled
	default:
		return StateFailed
	}
}

// ShouldForward decides whether a new attempt may be created right now.
func ShouldForward(latest *entity.ForwardAttempt, maxRetries int, now time.Time) bool {
	switch DeriveState(latest) {
	case StateNeverAttempted:
		return true
	case StateSuccess, StatePending:
		return false
	default:
		// failed or retry_scheduled: bounded, and not before next_retry_at.
		if latest.RetryCount >= maxRetries {
			return false
		}
		if latest.NextRetryAt != nil && latest.NextRetryAt.After(now) {
			return false
		}
		return true
	}
}

// NextRetryCount is the retry_count a new FAILED attempt must carry: one
// more than the latest attempt's count. Successful attempts keep the
// previous count; the counter only measures failures.
func NextRetryCount(latest *entity.ForwardAttempt) int {
	if latest == nil {
		return 1
	}
	return latest.RetryCount + 1
}

// QualityTags labels a lead for the CRM the way the sales side filters:
// a quality band, the source, and the signup month.
func QualityTags(lead *entity.Lead) []string {
	var band string
	switch {
	case lead.QualityScore >= 80:
		band = "high-quality"
	case lead.QualityScore >= 50:
		band = "medium-quality"
	default:
		band = "low-quality"
	}

	return []string{
		band,
		"wordpress-lead",
		"auto-sync",
		fmt.Sprintf("signup-%s", lead.SignupTime.Format("2006-01")),
	}
}
