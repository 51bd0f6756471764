package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eldoah/promo-hub/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC) // Wednesday

func TestCronExpression_Next(t *testing.T) {
	tests := []struct {
		expr  string
		after time.Time
		want  time.Time
	}{
		{"0 */3 * * *", base, time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)},
		{"0 */3 * * *", base.Add(-time.Minute), base},
		{"0 */3 * * *", time.Date(2026, 7, 1, 23, 30, 0, 0, time.UTC), time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)},
		{"*/15 * * * *", base.Add(7 * time.Minute), base.Add(15 * time.Minute)},
		{"5/20 * * * *", base, base.Add(5 * time.Minute)},
		{"0 22-23 * * *", base, time.Date(2026, 7, 1, 22, 0, 0, 0, time.UTC)},
		{"0 9 * * 1", base, time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)},
		{"30 8 * * 7", base, time.Date(2026, 7, 5, 8, 30, 0, 0, time.UTC)},
		{"0 0 */10 * *", base, time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)},
		{"0 0 10 * 5", base, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)},
		{"0 0 29 2 *", base, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"0 0 31 2 *", base, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ce.Next(tt.after))
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	for _, expr := range []string{
		"* * *",
		"60 * * * *",
		"0 24 * * *",
		"0 0 0 * *",
		"*/0 * * * *",
		"5-1 * * * *",
		"a * * * *",
		"1,,2 * * * *",
	} {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
	assert.Panics(t, func() { MustParseCronExpression("nope") })
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("@every 1h")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), s.Next(base))
	assert.Equal(t, "@every 1h0m0s", s.String())

	s, err = ParseSchedule(Every3Hours)
	require.NoError(t, err)
	assert.IsType(t, &CronExpression{}, s)

	_, err = ParseSchedule("@every -1m")
	assert.Error(t, err)
	_, err = ParseSchedule("@every soon")
	assert.Error(t, err)

	assert.True(t, NewIntervalSchedule(0).Next(base).IsZero())
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

type fakeJob struct {
	name  string
	err   error
	runs  atomic.Int32
	block chan struct{}
}

func (j *fakeJob) Name() string { return j.name }
func (j *fakeJob) Description() string { return "test job " + j.name }
func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newTestScheduler(c *clock, m *metrics.Metrics) *Scheduler {
	return NewScheduler(SchedulerConfig{Clock: c.Now, Metrics: m})
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(&clock{now: base}, nil)

	require.NoError(t, s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Hour)))
	assert.ErrorIs(t, s.Register(&fakeJob{name: "a"}, NewIntervalSchedule(time.Hour)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "b"}, nil), ErrNilSchedule)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, base.Add(time.Hour), jobs[0].NextRun)
	assert.Equal(t, "@every 1h0m0s", jobs[0].Schedule)
}

func TestScheduler_RunDue(t *testing.T) {
	c := &clock{now: base}
	m := metrics.New()
	s := newTestScheduler(c, m)

	ok := &fakeJob{name: "ok"}
	bad := &fakeJob{name: "bad", err: errors.New("boom")}
	require.NoError(t, s.Register(ok, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(bad, MustParseCronExpression("0 */3 * * *")))

	ctx := context.Background()

	s.runDue(ctx, c.Advance(30*time.Minute))
	s.wg.Wait()
	assert.Equal(t, int32(0), ok.runs.Load())

	s.runDue(ctx, c.Advance(30*time.Minute))
	s.wg.Wait()
	assert.Equal(t, int32(1), ok.runs.Load())
	assert.Equal(t, int32(0), bad.runs.Load())

	s.runDue(ctx, c.Advance(2*time.Hour))
	s.wg.Wait()
	assert.Equal(t, int32(2), ok.runs.Load())
	assert.Equal(t, int32(1), bad.runs.Load())

	history := s.GetHistory(0)
	require.Len(t, history, 3)
	assert.Len(t, s.GetHistory(1), 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("ok", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("bad", "failure")))

	for _, info := range s.ListJobs() {
		if info.Name == "bad" {
			assert.Equal(t, int64(1), info.FailCount)
			require.NotNil(t, info.LastResult)
			assert.False(t, info.LastResult.Success)
		}
	}
}

func TestScheduler_DisabledJobDoesNotRun(t *testing.T) {
	c := &clock{now: base}
	s := newTestScheduler(c, nil)
	job := &fakeJob{name: "j"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	require.NoError(t, s.DisableJob("j"))
	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)

	s.runDue(context.Background(), c.Advance(time.Hour))
	s.wg.Wait()
	assert.Equal(t, int32(0), job.runs.Load())

	require.NoError(t, s.EnableJob("j"))
	s.runDue(context.Background(), c.Advance(time.Minute))
	s.wg.Wait()
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_NoOverlap(t *testing.T) {
	c := &clock{now: base}
	s := newTestScheduler(c, nil)
	job := &fakeJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	ctx := context.Background()
	s.runDue(ctx, c.Advance(time.Minute))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	s.runDue(ctx, c.Advance(time.Minute))
	close(job.block)
	s.wg.Wait()
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(&clock{now: base}, nil)
	job := &fakeJob{name: "manual", err: errors.New("nope")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "manual")
	assert.EqualError(t, err, "nope")
	require.NotNil(t, res)
	assert.True(t, res.Manual)
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{TickInterval: time.Millisecond})
	job := &fakeJob{name: "tick", block: make(chan struct{})}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return job.runs.Load() >= 1 }, time.Second, time.Millisecond)

	// Stop cancels the context the blocked job is waiting on.
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
