package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quick(attempts int) *Backoff {
	return &Backoff{Attempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := quick(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	down := errors.New("down")
	var retries []int
	b := quick(4)
	b.OnRetry = func(attempt int, err error, _ time.Duration) {
		assert.ErrorIs(t, err, down)
		retries = append(retries, attempt)
	}

	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		return down
	})

	assert.ErrorIs(t, err, down)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, retries)
}

func TestDo_AttemptsBelowOneCallsOnce(t *testing.T) {
	calls := 0
	_ = quick(0).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := quick(3).Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_CancelDuringPauseKeepsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	refused := errors.New("connection refused")
	b := &Backoff{Attempts: 3, Initial: time.Hour, Max: time.Hour}
	b.OnRetry = func(int, error, time.Duration) { cancel() }

	err := b.Do(ctx, func(context.Context) error { return refused })
	assert.ErrorIs(t, err, refused)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), quick(3), func(context.Context) (int64, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("timeout")
		}
		return 371, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(371), v)
	assert.Equal(t, 2, calls)
}

func TestDelay(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond, Max: time.Second}

	assert.Equal(t, 100*time.Millisecond, b.Delay(1))
	assert.Equal(t, 200*time.Millisecond, b.Delay(2))
	assert.Equal(t, 800*time.Millisecond, b.Delay(4))
	assert.Equal(t, time.Second, b.Delay(5))
	assert.Equal(t, time.Second, b.Delay(60))

	b.Jitter = 0.2
	b.spread = func() float64 { return -1 }
	assert.Equal(t, 800*time.Millisecond, b.Delay(5))
	b.spread = func() float64 { return 0.5 }
	assert.Equal(t, 110*time.Millisecond, b.Delay(1))
}

func TestStartup(t *testing.T) {
	b := Startup(5, nil)
	assert.Equal(t, 5, b.Attempts)
	assert.Equal(t, 500*time.Millisecond, b.Initial)
	assert.Equal(t, 10*time.Second, b.Max)

	for attempt := 1; attempt <= 10; attempt++ {
		d := b.Delay(attempt)
		assert.LessOrEqual(t, d, 12*time.Second)
		assert.GreaterOrEqual(t, d, 400*time.Millisecond)
	}
}
