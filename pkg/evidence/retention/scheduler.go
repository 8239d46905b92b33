package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// RunResult describes the most recent scheduled pruning cycle.
type RunResult struct {
	Started time.Time
	Deleted int64
	Err     error
}

// Scheduler runs the pruner on a cron schedule. Overlapping runs are
// skipped and a panicking run is recovered and logged.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	last    *RunResult
}

// NewScheduler creates a new retention scheduler.
func NewScheduler(pruner *Pruner) *Scheduler {
	logger := slog.Default().With("component", "evidence.scheduler")
	cl := cronLogger{logger: logger}
	return &Scheduler{
		pruner: pruner,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Start begins scheduled pruning using the pruner's PruneSchedule, a
// standard five-field cron expression:
//
//	"0 3 * * *"    daily at 3 AM
//	"0 */6 * * *"  every 6 hours
//
// An empty schedule is not an error; the scheduler stays idle. The
// scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("retention scheduler already running")
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.config.RetentionDays,
		"max_receipts", s.pruner.config.MaxReceipts,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// run executes one pruning cycle and remembers its outcome.
func (s *Scheduler) run(ctx context.Context) {
	result := &RunResult{Started: time.Now()}
	result.Deleted, result.Err = s.pruner.Prune(ctx)

	if result.Err != nil {
		s.logger.Error("scheduled pruning failed", "error", result.Err)
	} else {
		s.logger.Debug("scheduled pruning completed", "deleted_count", result.Deleted)
	}

	if s.pruner.config.OnRun != nil {
		s.pruner.config.OnRun(result.Deleted, result.Err)
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// The job takes mu when it finishes, so wait without holding it.
	<-s.cron.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the outcome of the most recent scheduled cycle, or nil.
func (s *Scheduler) LastRun() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// NextRun returns the next scheduled pruning time.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
