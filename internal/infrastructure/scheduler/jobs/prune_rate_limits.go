package jobs

import (
	"context"
	"log/slog"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE RATE LIMITS JOB
// ══════════════════════════════════════════════════════════════════════════════

// Pruner is the part of the counter service the prune job needs.
type Pruner interface {
	PruneRateLimits(now time.Time) int
	TrackedClients() int
	Now() time.Time
}

// PruneRateLimitsJobName is the registered name of the job.
const PruneRateLimitsJobName = "prune_rate_limits"

// PruneRateLimitsJob drops expired entries from the counter's per-client table
// so it does not grow without bound.
type PruneRateLimitsJob struct {
	counter Pruner
	logger  *slog.Logger
}

// NewPruneRateLimitsJob creates the job.
func NewPruneRateLimitsJob(c Pruner, logger *slog.Logger) *PruneRateLimitsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneRateLimitsJob{
		counter: c,
		logger:  logger.With("job", PruneRateLimitsJobName),
	}
}

// Name implements scheduler.Job.
func (j *PruneRateLimitsJob) Name() string { return PruneRateLimitsJobName }

// Description implements scheduler.Job.
func (j *PruneRateLimitsJob) Description() string {
	return "Removes expired visitor rate-limit entries"
}

// Run implements scheduler.Job.
func (j *PruneRateLimitsJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	removed := j.counter.PruneRateLimits(j.counter.Now())
	j.logger.Info("rate limits pruned",
		"removed", removed,
		"remaining", j.counter.TrackedClients(),
	)
	return nil
}
