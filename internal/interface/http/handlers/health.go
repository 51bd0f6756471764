package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Pinger is anything that can check its own connectivity:
// the postgres pool, the mongo client and the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus is the body of /health.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Message   string                 `json:"message"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of pinging one dependency.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// Health pings the backing services of one process. Each ping gets its own
// timeout and all of them run in parallel.
type Health struct {
	version string
	timeout time.Duration
	started time.Time

	mu    sync.RWMutex
	names []string
	deps  map[string]Pinger
}

// NewHealth creates a checker with no dependencies. A non-positive timeout
// means 3s per ping.
func NewHealth(version string, timeout time.Duration) *Health {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Health{
		version: version,
		timeout: timeout,
		started: time.Now(),
		deps:    make(map[string]Pinger),
	}
}

// Register adds a dependency. Registering a name twice replaces the pinger.
func (h *Health) Register(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.deps[name]; !ok {
		h.names = append(h.names, name)
	}
	h.deps[name] = p
}

// Check pings every dependency. With none registered the process is healthy.
func (h *Health) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	names := append([]string(nil), h.names...)
	pingers := make([]Pinger, len(names))
	for i, name := range names {
		pingers[i] = h.deps[name]
	}
	h.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Message:   "All checks passed",
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}
	if len(names) == 0 {
		status.Message = "No dependencies registered"
		return status
	}

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, p := range pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = h.ping(ctx, p)
		}()
	}
	wg.Wait()

	status.Checks = make(map[string]CheckResult, len(names))
	var failed []string
	for i, name := range names {
		status.Checks[name] = results[i]
		if !results[i].Healthy {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		status.Healthy = false
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return status
}

func (h *Health) ping(ctx context.Context, p Pinger) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	res := CheckResult{
		Healthy:  err == nil,
		Message:  "OK",
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}
