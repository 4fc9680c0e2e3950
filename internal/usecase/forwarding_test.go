package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rollingriches/leadsync/internal/entity"
	"github.com/rollingriches/leadsync/internal/usecase"
)

func TestDeriveState(t *testing.T) {
	assert.Equal(t, usecase.StateNeverAttempted, usecase.DeriveState(nil))
	assert.Equal(t, usecase.StatePending, usecase.DeriveState(&entity.ForwardAttempt{Status: entity.AttemptPending}))
	assert.Equal(t, usecase.StateSuccess, usecase.DeriveState(&entity.ForwardAttempt{Status: entity.AttemptSuccess}))
	assert.Equal(t, usecase.StateFailed, usecase.DeriveState(&entity.ForwardAttempt{Status: entity.AttemptFailed}))
	assert.Equal(t, usecase.StateRetryScheduled, usecase.DeriveState(&entity.ForwardAttempt{Status: entity.AttemptRetry}))
}

func TestShouldForwardNeverAttempted(t *testing.T) {
	assert.True(t, usecase.ShouldForward(nil, 3, time.Now()))
}

func TestShouldForwardSuccessIsTerminal(t *testing.T) {
	latest := &entity.ForwardAttempt{Status: entity.AttemptSuccess}
	assert.False(t, usecase.ShouldForward(latest, 3, time.Now()))
}

func TestShouldForwardPendingBlocks(t *testing.T) {
	latest := &entity.ForwardAttempt{Status: entity.AttemptPending}
	assert.False(t, usecase.ShouldForward(latest, 3, time.Now()))
}

func TestShouldForwardRespectsRetryBound(t *testing.T) {
	now := time.Now()

	// Failures 1 and 2 out of 3 may retry.
	for _, count := range []int{1, 2} {
		latest := &entity.ForwardAttempt{Status: entity.AttemptFailed, RetryCount: count}
		assert.True(t, usecase.ShouldForward(latest, 3, now), "retry_count=%d", count)
	}

	// The third failure exhausts the budget.
	latest := &entity.ForwardAttempt{Status: entity.AttemptFailed, RetryCount: 3}
	assert.False(t, usecase.ShouldForward(latest, 3, now))
}

func TestShouldForwardWaitsForNextRetryAt(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	notYet := &entity.ForwardAttempt{Status: entity.AttemptFailed, RetryCount: 1, NextRetryAt: &future}
	assert.False(t, usecase.ShouldForward(notYet, 3, now))

	due := &entity.ForwardAttempt{Status: entity.AttemptFailed, RetryCount: 1, NextRetryAt: &past}
	assert.True(t, usecase.ShouldForward(due, 3, now))
}

func TestShouldForwardRetryScheduledIsEligible(t *testing.T) {
	now := time.Now()
	latest := &entity.ForwardAttempt{Status: entity.AttemptRetry, RetryCount: 2, NextRetryAt: &now}
	assert.True(t, usecase.ShouldForward(latest, 3, now.Add(time.Second)))
}

func TestNextRetryCount(t *testing.T) {
	assert.Equal(t, 1, usecase.NextRetryCount(nil))
	assert.Equal(t, 2, usecase.NextRetryCount(&entity.ForwardAttempt{RetryCount: 1}))
	assert.Equal(t, 3, usecase.NextRetryCount(&entity.ForwardAttempt{RetryCount: 2}))
}

func TestQualityTags(t *testing.T) {
	signup := time.Date(2024, 7, 14, 9, 30, 0, 0, time.UTC)

	high := &entity.Lead{QualityScore: 90, SignupTime: signup}
	assert.Equal(t, []string{"high-quality", "wordpress-lead", "auto-sync", "signup-2024-07"}, usecase.QualityTags(high))

	medium := &entity.Lead{QualityScore: 65, SignupTime: signup}
	assert.Contains(t, usecase.QualityTags(medium), "medium-quality")

	low := &entity.Lead{QualityScore: 40, SignupTime: signup}
	assert.Contains(t, usecase.QualityTags(low), "low-quality")
}
