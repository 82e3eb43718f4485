package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
)

// DefaultPollInterval is used when SchedulerConfig.Interval is not set
const DefaultPollInterval = 5 * time.Minute

// Runner runs one ingestion cycle
type Runner interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// SchedulerConfig holds configuration for the ingestion scheduler
type SchedulerConfig struct {
	// Interval is how often to poll the mailbox
	Interval time.Duration
	// RunOnStart runs a cycle as soon as the scheduler starts
	RunOnStart bool
}

// Scheduler runs ingestion cycles on a ticker and on demand. Manual
// triggers coalesce: while one is queued further triggers are dropped.
type Scheduler struct {
	runner    Runner
	config    SchedulerConfig
	logger    *slog.Logger
	stopCh    chan struct{}
	triggerCh chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewScheduler creates a new ingestion scheduler
func NewScheduler(runner Runner, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		runner:    runner,
		config:    config,
		logger:    logger,
		stopCh:    make(chan struct{}),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start begins the polling loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("ingestion scheduler started",
		slog.Duration("poll_interval", s.config.Interval),
		slog.Bool("run_on_start", s.config.RunOnStart))
}

// Stop ends the loop and cancels a cycle in flight, then waits for it
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("ingestion scheduler stopped")
}

// IsRunning returns whether the scheduler loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Trigger queues a cycle. It returns false when the scheduler is stopped or
// a triggered cycle is already queued.
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		s.logger.Warn("trigger called but scheduler is not running")
		return false
	}

	select {
	case s.triggerCh <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runCycle(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runCycle(ctx)
		case <-s.triggerCh:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	_, err := s.runner.RunCycle(ctx)
	switch {
	case errors.Is(err, apperrors.ErrCycleInProgress):
		s.logger.Debug("scheduled cycle skipped, another cycle is running")
	case err != nil:
		// the runner logs cycle details; keep the loop alive
		s.logger.Warn("scheduled cycle failed", slog.Any("error", err))
	}
}
