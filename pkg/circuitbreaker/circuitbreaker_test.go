package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var errDown = errors.New("down")

func fail(context.Context) error { return errDown }
func ok(context.Context) error   { return nil }

func TestBreaker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	var changes []string
	cb := New(Settings{
		Name:      "cache",
		Threshold: 3,
		Cooldown:  10 * time.Second,
		Now:       clock.Now,
		OnChange: func(name string, from, to State) {
			assert.Equal(t, "cache", name)
			changes = append(changes, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Do(ctx, fail), errDown)
	}
	require.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open breaker does not call through")

	clock.Advance(10 * time.Second)
	require.NoError(t, cb.Do(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, changes)
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	ctx := context.Background()
	cb := New(Settings{Threshold: 2})

	_ = cb.Do(ctx, fail)
	_ = cb.Do(ctx, ok)
	_ = cb.Do(ctx, fail)
	assert.Equal(t, StateClosed, cb.State(), "failures must be consecutive")

	_ = cb.Do(ctx, fail)
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreaker_TrialFailureReopens(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := New(Settings{Threshold: 1, Cooldown: time.Second, Now: clock.Now})

	_ = cb.Do(ctx, fail)
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(time.Second)
	assert.ErrorIs(t, cb.Do(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Do(ctx, ok), ErrOpen, "cooldown restarts from the failed trial")
	clock.Advance(time.Second)
	assert.NoError(t, cb.Do(ctx, ok))
}

func TestBreaker_OneTrialAtATime(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := New(Settings{Threshold: 1, Cooldown: time.Second, Now: clock.Now})
	_ = cb.Do(ctx, fail)
	clock.Advance(time.Second)

	inTrial := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cb.Do(ctx, func(context.Context) error {
			close(inTrial)
			<-release
			return nil
		})
	}()

	<-inTrial
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.ErrorIs(t, cb.Do(ctx, ok), ErrOpen)
	close(release)
	wg.Wait()

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_CancelledCallsDoNotCount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cb := New(Settings{Threshold: 1})

	err := cb.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCacheBreaker(t *testing.T) {
	cb := CacheBreaker("listing-cache", nil)
	assert.Equal(t, "listing-cache", cb.settings.Name)
	assert.Equal(t, 3, cb.settings.Threshold)
	assert.Equal(t, 15*time.Second, cb.settings.Cooldown)
	assert.Equal(t, "closed", cb.State().String())
}
