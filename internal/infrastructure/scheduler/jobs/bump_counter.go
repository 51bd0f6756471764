// Package jobs contains the scheduled jobs of promo-hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eldoah/promo-hub/internal/application/counter"
	"github.com/eldoah/promo-hub/internal/infrastructure/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUMP COUNTER JOB
// ══════════════════════════════════════════════════════════════════════════════

// Bumper is the part of the counter service the bump job needs.
type Bumper interface {
	Bump(ctx context.Context, lo, hi int64) (counter.BumpResult, error)
}

// BumpCounterConfig contains configuration for the bump job.
type BumpCounterConfig struct {
	// Min and Max bound the random increment, both inclusive.
	Min int64
	Max int64
}

// DefaultBumpCounterConfig returns the default 10..20 range.
func DefaultBumpCounterConfig() BumpCounterConfig {
	return BumpCounterConfig{Min: 10, Max: 20}
}

// BumpCounterJob adds organic growth to the visitor counter.
type BumpCounterJob struct {
	counter Bumper
	config  BumpCounterConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBumpCounterJob creates the job.
func NewBumpCounterJob(c Bumper, config BumpCounterConfig, m *metrics.Metrics, logger *slog.Logger) *BumpCounterJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BumpCounterJob{
		counter: c,
		config:  config,
		metrics: m,
		logger:  logger.With("job", BumpCounterJobName),
	}
}

// BumpCounterJobName is the registered name of the job.
const BumpCounterJobName = "bump_counter"

// Name implements scheduler.Job.
func (j *BumpCounterJob) Name() string { return BumpCounterJobName }

// Description implements scheduler.Job.
func (j *BumpCounterJob) Description() string {
	return fmt.Sprintf("Adds %d..%d to the visitor counter", j.config.Min, j.config.Max)
}

// Run implements scheduler.Job.
func (j *BumpCounterJob) Run(ctx context.Context) error {
	res, err := j.counter.Bump(ctx, j.config.Min, j.config.Max)
	if err != nil {
		return fmt.Errorf("bump counter: %w", err)
	}
	j.metrics.ObserveBump()

	j.logger.Info("counter bumped",
		"increment", res.Increment,
		"total_joined", res.TotalJoined,
	)
	return nil
}
