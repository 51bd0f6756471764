// Package circuitbreaker keeps promo-hub from waiting on an unhealthy cache.
//
// After Threshold consecutive failures the breaker opens and every call is
// refused with ErrOpen for Cooldown. The first call after the cooldown is a
// trial: success closes the breaker, failure opens it for another cooldown.
// Calls made while the trial is running are refused.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned instead of calling through an open breaker.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values take the CacheBreaker defaults.
type Settings struct {
	Name      string
	Threshold int
	Cooldown  time.Duration

	// OnChange is called outside the lock after every transition.
	OnChange func(name string, from, to State)

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Breaker is safe for concurrent use.
type Breaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time

	// pending holds transitions not yet reported to OnChange.
	pending []transition
}

type transition struct{ from, to State }

// New builds a closed breaker.
func New(s Settings) *Breaker {
	if s.Threshold <= 0 {
		s.Threshold = 3
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 15 * time.Second
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return &Breaker{settings: s}
}

// CacheBreaker guards a redis-backed cache: three failures in a row open it
// for 15 seconds.
func CacheBreaker(name string, onChange func(name string, from, to State)) *Breaker {
	return New(Settings{Name: name, Threshold: 3, Cooldown: 15 * time.Second, OnChange: onChange})
}

// State returns the current position. An open breaker whose cooldown has
// passed still reports StateOpen until the next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do calls fn unless the breaker refuses it with ErrOpen.
// A failure caused by ctx ending does not count against the backend.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err == nil || ctx.Err() != nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	switch b.state {
	case StateHalfOpen:
		b.mu.Unlock()
		return ErrOpen
	case StateOpen:
		if b.settings.Now().Sub(b.openedAt) < b.settings.Cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.moveLocked(StateHalfOpen)
	}
	b.mu.Unlock()
	b.notify()
	return nil
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	switch {
	case ok:
		b.failures = 0
		if b.state == StateHalfOpen {
			b.moveLocked(StateClosed)
		}
	case b.state == StateHalfOpen:
		b.trip()
	default:
		b.failures++
		if b.failures >= b.settings.Threshold {
			b.trip()
		}
	}
	b.mu.Unlock()
	b.notify()
}

func (b *Breaker) trip() {
	b.failures = 0
	b.openedAt = b.settings.Now()
	b.moveLocked(StateOpen)
}

func (b *Breaker) moveLocked(to State) {
	if b.state == to {
		return
	}
	if b.settings.OnChange != nil {
		b.pending = append(b.pending, transition{b.state, to})
	}
	b.state = to
}

func (b *Breaker) notify() {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, t := range pending {
		b.settings.OnChange(b.settings.Name, t.from, t.to)
	}
}
