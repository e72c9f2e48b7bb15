package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Job on a standard five-field cron spec.
type Scheduler struct {
	cron    *cron.Cron
	job     *Job
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler registers job under spec. Each run is bounded by timeout when
// it is positive.
func NewScheduler(job *Job, spec string, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		job:     job,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	// Run logs its own outcome.
	_, _ = s.job.Run(ctx)
}

// Next reports when the export runs next. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("export scheduler started", "next_run", s.Next())
}

// Stop halts the schedule and waits for a running export to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("export scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("export scheduler stop timed out", "error", ctx.Err())
	}
}
