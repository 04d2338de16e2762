package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/reddam/jobscout/internal/pipeline"
)

// Scheduler drives repeated pipeline runs on a fixed interval for daemon
// use. Ticks are consumed sequentially, so at most one run is ever active.
type Scheduler struct {
	pipe     *pipeline.Pipeline
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler running the pipeline at the given interval.
func New(pipe *pipeline.Pipeline, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pipe:     pipe,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop: one immediate pass, then one per interval. It
// returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stats, err := s.pipe.Run(ctx)
	if err != nil {
		s.logger.Error("pipeline run failed", "error", err)
		return
	}
	s.logger.Info("pipeline run complete",
		"raw", stats.Raw,
		"persisted", stats.Inserted+stats.Updated,
		"notified", stats.Notified,
	)
}
