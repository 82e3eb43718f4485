package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
)

// countingRunner counts cycles and optionally blocks each one until released
type countingRunner struct {
	runs    atomic.Int32
	release chan struct{}
	entered chan struct{}
	mu      sync.Mutex
	ctxErrs []error
}

func (r *countingRunner) RunCycle(ctx context.Context) (CycleResult, error) {
	r.runs.Add(1)
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			r.mu.Lock()
			r.ctxErrs = append(r.ctxErrs, ctx.Err())
			r.mu.Unlock()
			return CycleResult{}, ctx.Err()
		}
	}
	return CycleResult{Stage: StageDone}, nil
}

func TestScheduler_StartStop(t *testing.T) {
	// Arrange
	s := NewScheduler(&countingRunner{}, SchedulerConfig{Interval: time.Hour}, nil)

	// Act
	s.Start()
	running := s.IsRunning()
	s.Start()
	s.Stop()
	s.Stop()

	// Assert
	assert.True(t, running)
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunOnStart(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, SchedulerConfig{Interval: time.Hour, RunOnStart: true}, nil)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_RunsOnTicker(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, SchedulerConfig{Interval: 20 * time.Millisecond}, nil)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_TriggerCoalesces(t *testing.T) {
	// Arrange
	runner := &countingRunner{release: make(chan struct{}), entered: make(chan struct{}, 4)}
	s := NewScheduler(runner, SchedulerConfig{Interval: time.Hour}, nil)
	s.Start()
	defer s.Stop()

	// Act
	assert.True(t, s.Trigger())
	<-runner.entered
	// one trigger queues behind the running cycle, the rest are dropped
	queued := s.Trigger()
	dropped := s.Trigger()
	runner.release <- struct{}{}
	<-runner.entered
	runner.release <- struct{}{}

	// Assert
	assert.True(t, queued)
	assert.False(t, dropped)
	assert.Never(t, func() bool { return runner.runs.Load() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_TriggerWhenStopped(t *testing.T) {
	s := NewScheduler(&countingRunner{}, SchedulerConfig{}, nil)

	assert.False(t, s.Trigger())
}

func TestScheduler_StopCancelsRunningCycle(t *testing.T) {
	// Arrange
	runner := &countingRunner{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewScheduler(runner, SchedulerConfig{Interval: time.Hour, RunOnStart: true}, nil)
	s.Start()
	<-runner.entered

	// Act
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.ctxErrs, 1)
}

func TestScheduler_ToleratesCycleInProgress(t *testing.T) {
	runner := &busyRunner{}
	s := NewScheduler(runner, SchedulerConfig{Interval: time.Hour, RunOnStart: true}, nil)

	s.Start()
	assert.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, s.Trigger())
	assert.Eventually(t, func() bool { return runner.calls.Load() == 2 }, time.Second, 10*time.Millisecond)
	s.Stop()
}

type busyRunner struct {
	calls atomic.Int32
}

func (r *busyRunner) RunCycle(ctx context.Context) (CycleResult, error) {
	r.calls.Add(1)
	return CycleResult{Stage: StageAborted}, apperrors.ErrCycleInProgress
}
