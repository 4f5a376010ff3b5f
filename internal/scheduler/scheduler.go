package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobmerge/internal/pipeline"
)

// Runner executes one merge run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Scheduler owns the daemon loop: one run immediately, then one per interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It returns nil when ctx is cancelled (graceful shutdown).
// A failed run is logged and the loop continues.
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
	res, err := s.runner.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("run failed", "error", err)
		return
	}
	s.logger.Info("next run scheduled",
		"output", res.Report.Output,
		"next_run", time.Now().Add(s.interval).Format(time.RFC3339),
	)
}
