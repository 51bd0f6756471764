package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYED RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// KeyedRateLimiter keeps one token bucket per key (client IP).
// Buckets idle for longer than idleTTL are evicted by a background sweep.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewKeyedRateLimiter allows perMinute requests per minute per key,
// with bursts up to burst.
func NewKeyedRateLimiter(perMinute, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}

	krl := &KeyedRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go krl.cleanupLoop(idleTTL / 2)
	return krl
}

// Allow reports whether a request for key may proceed now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	e := krl.entry(key)
	now := krl.now()

	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// RetryAfter estimates how long key has to wait for the next token.
func (krl *KeyedRateLimiter) RetryAfter(key string) time.Duration {
	e := krl.entry(key)
	now := krl.now()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Minute
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.limiters)
}

func (krl *KeyedRateLimiter) entry(key string) *limiterEntry {
	krl.mu.RLock()
	e, ok := krl.limiters[key]
	krl.mu.RUnlock()
	if ok {
		return e
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()

	if e, ok = krl.limiters[key]; ok {
		return e
	}
	e = &limiterEntry{
		limiter:  rate.NewLimiter(krl.limit, krl.burst),
		lastSeen: krl.now(),
	}
	krl.limiters[key] = e
	return e
}

// Evict drops buckets idle since before now-idleTTL and returns how many.
func (krl *KeyedRateLimiter) Evict(now time.Time) int {
	cutoff := now.Add(-krl.idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()

	removed := 0
	for key, e := range krl.limiters {
		e.mu.Lock()
		idle := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(krl.limiters, key)
			removed++
		}
	}
	return removed
}

// Stop ends the background sweep.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.Evict(krl.now())
		}
	}
}
