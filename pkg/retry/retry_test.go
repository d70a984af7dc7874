package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSink = errors.New("sink down")

func fastRetrier(attempts int, opts ...Option) *Retrier {
	base := []Option{WithMaxAttempts(attempts), WithInitialDelay(time.Millisecond), WithJitter(0)}
	return New(append(base, opts...)...)
}

func TestRetrier_SucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	var retried []int
	r := fastRetrier(3, WithOnRetry(func(attempt int, err error, _ time.Duration) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, errSink)
	}))

	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errSink)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetrier_StopsOnUnmarkedError(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		calls++
		return errSink
	})
	assert.ErrorIs(t, err, errSink)
	assert.Equal(t, 1, calls)
}

func TestRetrier_PermanentBeatsRetryIf(t *testing.T) {
	calls := 0
	r := fastRetrier(5, WithRetryIf(func(error) bool { return true }))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errSink)
	})
	assert.Equal(t, errSink, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetrier(4).Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errSink)
	})
	assert.Equal(t, errSink, err)
	assert.Equal(t, 4, calls)
}

func TestRetrier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fastRetrier(3).Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarkers(t *testing.T) {
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
	assert.True(t, IsRetryable(Retryable(errSink)))
	assert.False(t, IsRetryable(errSink))
	assert.True(t, IsPermanent(Permanent(errSink)))
}
