package worker

import (
	"context"
	"log"
	"time"
)

// RetryMarker is the slice of the ledger this worker needs.
type RetryMarker interface {
	ScheduleRetries(ctx context.Context, day time.Time, maxRetries int) (int64, error)
}

// RetryScheduler runs the end-of-day reconciliation pass: all of today's
// failed forward attempts still under the retry bound become eligible again,
// and the next sync cycle picks them up first.
type RetryScheduler struct {
	attempts   RetryMarker
	maxRetries int
}

func NewRetryScheduler(attempts RetryMarker, maxRetries int) *RetryScheduler {
	return &RetryScheduler{
		attempts:   attempts,
		maxRetries: maxRetries,
	}
}

func (s *RetryScheduler) Run(ctx context.Context) error {
	marked, err := s.attempts.ScheduleRetries(ctx, time.Now(), s.maxRetries)
	if err != nil {
		log.Printf("❌ Retry scheduler failed: %v", err)
		return err
	}

	if marked > 0 {
		log.Printf("🕒 Retry scheduler: %d failed attempt(s) marked for retry", marked)
	}
	return nil
}
