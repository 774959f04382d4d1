package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler fires runs from the configured cron expression.
type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	runner *Runner
	logger *zap.Logger
}

// cronLogger adapts zap to the cron logging interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// NewScheduler parses the schedule in the configured timezone. Ticks that fire
// while the previous run is still going are skipped.
func NewScheduler(ctx context.Context, cfg Config, runner *Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	cl := cronLogger{s: logger.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{cron: c, runner: runner, logger: logger}
	s.entry, err = c.AddFunc(cfg.Schedule, func() { s.tick(ctx) })
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) tick(ctx context.Context) {
	s.logger.Info("Scheduled sync run triggered")
	_, err := s.runner.Run(ctx, s.runner.DefaultOptions())
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("Scheduled run skipped, another run is in progress")
	}
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Start begins firing runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Time("next_run", s.Next()))
}

// Stop stops the scheduler and returns a context done when the active job ends.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
