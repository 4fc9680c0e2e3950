package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRetryMarker struct {
	mock.Mock
}

func (m *MockRetryMarker) ScheduleRetries(ctx context.Context, day time.Time, maxRetries int) (int64, error) {
	args := m.Called(ctx, day, maxRetries)
	return args.Get(0).(int64), args.Error(1)
}

func TestRetrySchedulerMarksFailedAttempts(t *testing.T) {
	ctx := context.Background()
	marker := new(MockRetryMarker)
	marker.On("ScheduleRetries", ctx, mock.Anything, 3).Return(int64(5), nil)

	s := NewRetryScheduler(marker, 3)
	err := s.Run(ctx)

	assert.NoError(t, err)
	marker.AssertCalled(t, "ScheduleRetries", ctx, mock.Anything, 3)
}

func TestRetrySchedulerPropagatesError(t *testing.T) {
	ctx := context.Background()
	marker := new(MockRetryMarker)
	marker.On("ScheduleRetries", ctx, mock.Anything, 3).Return(int64(0), errors.New("db down"))

	s := NewRetryScheduler(marker, 3)
	assert.Error(t, s.Run(ctx))
}
