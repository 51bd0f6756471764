// Package retry retries the connections promo-hub opens on boot: the
// postgres pool, the mongo client and the redis cache. Delays double after
// every failed attempt, are capped, and carry jitter so instances that
// restart together do not reconnect in lockstep.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff describes how often and how patiently to retry.
type Backoff struct {
	// Attempts counts the first call too. Values below 1 mean one call.
	Attempts int

	// Initial is the pause after the first failure.
	Initial time.Duration

	// Max caps the pause before jitter is applied.
	Max time.Duration

	// Jitter spreads each pause by up to this fraction in either direction.
	Jitter float64

	// OnRetry is called before every pause.
	OnRetry func(attempt int, err error, delay time.Duration)

	// spread returns a value in [-1, 1). Tests replace it.
	spread func() float64
}

// Startup is the policy for boot-time connections: 500ms doubling up to
// 10s with 20% jitter.
func Startup(attempts int, onRetry func(attempt int, err error, delay time.Duration)) *Backoff {
	return &Backoff{
		Attempts: attempts,
		Initial:  500 * time.Millisecond,
		Max:      10 * time.Second,
		Jitter:   0.2,
		OnRetry:  onRetry,
	}
}

// Delay returns the pause that follows the given failed attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 1; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}

	if b.Jitter > 0 {
		spread := b.spread
		if spread == nil {
			spread = func() float64 { return rand.Float64()*2 - 1 }
		}
		d += time.Duration(float64(d) * b.Jitter * spread())
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Do calls op until it succeeds, the attempts run out or ctx is done.
// It returns the last error op produced, or ctx.Err() if op never ran.
func (b *Backoff) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		if last = op(ctx); last == nil {
			return nil
		}
		if attempt >= b.Attempts {
			return last
		}

		delay := b.Delay(attempt)
		if b.OnRetry != nil {
			b.OnRetry(attempt, last, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return last
		case <-t.C:
		}
	}
}

// DoWithData is Do for operations that build a value, such as a connection.
func DoWithData[T any](ctx context.Context, b *Backoff, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := b.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
