package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// JobProvider lists the jobs to submit on one tick.
type JobProvider func(context.Context) ([]Job, error)

// Config holds configuration for the scheduler.
type Config struct {
	Interval     time.Duration
	WorkerCount  int
	QueueSize    int
	RunOnStartup bool
	JobProvider  JobProvider
}

// Scheduler submits the provider's jobs to a worker pool every interval.
type Scheduler struct {
	workerPool   *WorkerPool
	interval     time.Duration
	runOnStartup bool
	jobProvider  JobProvider
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("scheduler interval must be positive")
	}
	if cfg.JobProvider == nil {
		return nil, errors.New("scheduler requires a job provider")
	}
	if logger == nil {
		logger = slog.Default().With("system", "scheduler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		workerPool:   NewWorkerPool(cfg.WorkerCount, cfg.QueueSize, logger),
		interval:     cfg.Interval,
		runOnStartup: cfg.RunOnStartup,
		jobProvider:  cfg.JobProvider,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start launches the worker pool and the tick loop.
func (s *Scheduler) Start() {
	s.workerPool.Start()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("Scheduler started", "interval", s.interval, "run_on_startup", s.runOnStartup)
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	if s.runOnStartup {
		s.RunOnce(s.ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce fetches jobs from the provider and submits them, returning how
// many were queued.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch jobs", "error", err)
		return 0
	}
	if len(jobs) == 0 {
		s.logger.Debug("No jobs to process")
		return 0
	}
	return s.workerPool.SubmitBatch(jobs)
}

// Shutdown stops the tick loop, then drains the worker pool within timeout.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("Timeout waiting for scheduler loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)
	s.logger.Info("Scheduler stopped")
}
