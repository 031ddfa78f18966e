package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// maxTick bounds how often the scheduler checks whether a run is due.
const maxTick = time.Minute

// Scheduler triggers incremental pipeline runs at a fixed interval.
// Task state is persisted so a restart keeps the cadence.
type Scheduler struct {
	interval time.Duration
	store    driven.SchedulerStore
	pipeline driving.PipelineOrchestrator
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler running the pipeline every interval.
func NewScheduler(
	interval time.Duration,
	store driven.SchedulerStore,
	pipeline driving.PipelineOrchestrator,
) *Scheduler {
	return &Scheduler{
		interval: interval,
		store:    store,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	logger.Info("Scheduler started: incremental run every %s", s.interval)

	// Check for a due run immediately on startup
	s.runIfDue(ctx)

	ticker := time.NewTicker(min(s.interval, maxTick))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runIfDue(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler, waiting for an active run.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running || s.stopCh == nil {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runIfDue runs the pipeline when the persisted task says it is due.
func (s *Scheduler) runIfDue(ctx context.Context) {
	task, err := s.store.GetTask(ctx, domain.TaskIDIncrementalIngest)
	if err != nil {
		logger.Warn("scheduler: failed to load task: %v", err)
		return
	}
	if task == nil {
		task = &domain.ScheduledTask{ID: domain.TaskIDIncrementalIngest}
	}
	task.Interval = s.interval

	now := s.now()
	if !task.Due(now) {
		return
	}

	task.LastRun = now
	report, err := s.pipeline.Run(ctx, domain.RunOptions{Mode: domain.RunModeIncremental})
	ended := s.now()

	switch {
	case errors.Is(err, domain.ErrPipelineRunning):
		logger.Info("scheduler: skipping tick, a run is already in progress")
	case err != nil:
		task.LastError = err.Error()
		logger.Warn("scheduler: incremental run failed: %v", err)
	default:
		task.LastError = ""
		task.LastSuccess = ended
		logger.Info("scheduler: incremental run %s finished (%d written)", report.ID, report.Upsert.Written())
	}
	task.NextRun = ended.Add(s.interval)

	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: failed to save task: %v", err)
	}
}
