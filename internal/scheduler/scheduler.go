package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler runs a job once or on a fixed interval, giving every run its
// own timeout.
type Scheduler struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
}

func New(job Job, interval, timeout time.Duration) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		timeout:  timeout,
	}
}

// RunOnce runs the job with the configured timeout.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.job.Run(ctx)
}

// Start runs the job immediately and then every interval until ctx is done.
// Failed runs are logged; the next tick runs again.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", s.interval)

	for {
		if err := s.RunOnce(ctx); err != nil {
			slog.Error("Scheduled run failed", "error", err)
		}
		if ctx.Err() != nil {
			slog.Info("Scheduler stopped")
			return
		}

		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
