package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetriesOnSlotUnavailable(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.Join(scheduler.ErrSlotUnavailable, errors.New("alice on 03-01-2024"))
		}
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_FailsFastOnOtherErrors(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return scheduler.ErrOutOfStock
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, scheduler.ErrOutOfStock)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_ExhaustsRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return scheduler.ErrSlotUnavailable
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn,
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(time.Millisecond),
		shell.WithJitterFactor(0),
	)

	// assert
	assert.ErrorIs(t, err, scheduler.ErrSlotUnavailable)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)
	assert.Equal(t, "slot_unavailable", meta.LastErrorType)
	assert.True(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_CustomRetryableErrors(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount == 1 {
			return scheduler.ErrStorage
		}
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn,
		shell.WithRetryableErrors(scheduler.ErrStorage),
		shell.WithBaseDelay(0),
	)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, meta.Attempts)
}

func Test_RetryWithExponentialBackoff_StopsWhenContextIsCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return scheduler.ErrSlotUnavailable
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	fn := func(_ context.Context) error { return nil }

	testCases := []struct {
		name     string
		option   shell.RetryOption
		expected error
	}{
		{"zero max attempts", shell.WithMaxAttempts(0), shell.ErrInvalidMaxAttempts},
		{"negative base delay", shell.WithBaseDelay(-time.Millisecond), shell.ErrNegativeBaseDelay},
		{"jitter above one", shell.WithJitterFactor(1.5), shell.ErrInvalidJitterFactor},
		{"jitter below zero", shell.WithJitterFactor(-0.1), shell.ErrInvalidJitterFactor},
		{"no retryable errors", shell.WithRetryableErrors(), shell.ErrNoRetryableErrors},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := shell.RetryWithExponentialBackoff(context.Background(), fn, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_ClassifyError(t *testing.T) {
	testCases := []struct {
		err      error
		expected string
	}{
		{nil, shell.StatusSuccess},
		{scheduler.ErrNotAuthorized, shell.StatusRejected},
		{scheduler.ErrNoAvailability, shell.StatusRejected},
		{scheduler.ErrSlotUnavailable, shell.StatusSlotUnavailable},
		{errors.Join(scheduler.ErrSlotUnavailable, scheduler.ErrStorage), shell.StatusError},
		{context.Canceled, shell.StatusCanceled},
		{errors.Join(scheduler.ErrStorage, context.DeadlineExceeded), shell.StatusTimeout},
		{errors.New("boom"), shell.StatusError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, shell.ClassifyError(tc.err), "error: %v", tc.err)
	}
}

func Test_RetryWithExponentialBackoff_PermanentStopsRetrying(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return shell.Permanent(errors.Join(scheduler.ErrSlotUnavailable, scheduler.ErrStorage))
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, scheduler.ErrSlotUnavailable)
	assert.ErrorIs(t, err, scheduler.ErrStorage)
	assert.Equal(t, 1, callCount)
	assert.False(t, meta.RetriesExhausted)
	assert.Nil(t, shell.Permanent(nil))
}
