package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/shared"
)

// CounterStore implements counter.Store. Add is atomic under the mutex.
type CounterStore struct {
	mu      sync.Mutex
	current *counter.Counter
}

// NewCounterStore creates an empty store.
func NewCounterStore() *CounterStore {
	return &CounterStore{}
}

// Find returns the counter or shared.ErrCounterNotFound.
func (s *CounterStore) Find(_ context.Context) (*counter.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, shared.ErrCounterNotFound
	}
	c := *s.current
	return &c, nil
}

// FindOrCreate returns the counter, creating it with seed.
func (s *CounterStore) FindOrCreate(_ context.Context, seed int64, now time.Time) (*counter.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.current = &counter.Counter{TotalJoined: seed, LastUpdated: now}
	}
	c := *s.current
	return &c, nil
}

// Add increments by delta or creates the counter at initial.
func (s *CounterStore) Add(_ context.Context, delta, initial int64, now time.Time) (*counter.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.current = &counter.Counter{TotalJoined: initial}
	} else {
		s.current.TotalJoined += delta
	}
	s.current.LastUpdated = now
	c := *s.current
	return &c, nil
}
