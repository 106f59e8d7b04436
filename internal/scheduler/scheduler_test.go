package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	service "payment-matching-backend/internal/services/reconciliation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingJob struct {
	company string
	runs    *atomic.Int32
	err     error
	done    *sync.WaitGroup
}

func (j countingJob) Execute(context.Context) error {
	j.runs.Add(1)
	if j.done != nil {
		j.done.Done()
	}
	return j.err
}

func (j countingJob) CompanyID() string   { return j.company }
func (j countingJob) Description() string { return "count" }

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	pool := NewWorkerPool(3, 10, discardLogger())
	pool.Start()

	var runs atomic.Int32
	var wg sync.WaitGroup
	jobs := make([]Job, 6)
	for i := range jobs {
		wg.Add(1)
		var err error
		if i%2 == 0 {
			err = errors.New("boom")
		}
		jobs[i] = countingJob{company: "c", runs: &runs, err: err, done: &wg}
	}

	assert.Equal(t, 6, pool.SubmitBatch(jobs))
	wg.Wait()
	pool.ShutdownWithTimeout(time.Second)

	assert.Equal(t, int32(6), runs.Load())
}

func TestWorkerPool_QueueFull(t *testing.T) {
	pool := NewWorkerPool(1, 1, discardLogger())

	var runs atomic.Int32
	require.NoError(t, pool.Submit(countingJob{company: "a", runs: &runs}))
	err := pool.Submit(countingJob{company: "b", runs: &runs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")

	pool.ShutdownWithTimeout(100 * time.Millisecond)
	assert.ErrorIs(t, pool.Submit(countingJob{company: "c", runs: &runs}), ErrPoolClosed)
}

func TestWorkerPool_DrainsQueueOnShutdown(t *testing.T) {
	pool := NewWorkerPool(1, 5, discardLogger())

	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(countingJob{company: "c", runs: &runs}))
	}
	pool.Start()
	pool.ShutdownWithTimeout(time.Second)

	assert.Equal(t, int32(5), runs.Load())
}

func TestNewScheduler_Validation(t *testing.T) {
	provider := func(context.Context) ([]Job, error) { return nil, nil }

	_, err := NewScheduler(Config{Interval: 0, JobProvider: provider}, nil)
	assert.Error(t, err)

	_, err = NewScheduler(Config{Interval: time.Minute}, nil)
	assert.Error(t, err)

	s, err := NewScheduler(Config{Interval: time.Minute, JobProvider: provider}, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestScheduler_RunOnce(t *testing.T) {
	var runs atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)

	calls := 0
	s, err := NewScheduler(Config{
		Interval:    time.Hour,
		WorkerCount: 2,
		QueueSize:   10,
		JobProvider: func(context.Context) ([]Job, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("db down")
			}
			return []Job{
				countingJob{company: "a", runs: &runs, done: &wg},
				countingJob{company: "b", runs: &runs, done: &wg},
			}, nil
		},
	}, discardLogger())
	require.NoError(t, err)

	s.workerPool.Start()
	assert.Equal(t, 2, s.RunOnce(context.Background()))
	wg.Wait()
	assert.Equal(t, 0, s.RunOnce(context.Background()))

	s.Shutdown(time.Second)
	assert.Equal(t, int32(2), runs.Load())
}

func TestScheduler_RunOnStartup(t *testing.T) {
	var runs atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	var once sync.Once
	s, err := NewScheduler(Config{
		Interval:     time.Hour,
		WorkerCount:  1,
		QueueSize:    1,
		RunOnStartup: true,
		JobProvider: func(context.Context) ([]Job, error) {
			var jobs []Job
			once.Do(func() {
				jobs = []Job{countingJob{company: "a", runs: &runs, done: &wg}}
			})
			return jobs, nil
		},
	}, discardLogger())
	require.NoError(t, err)

	s.Start()
	wg.Wait()
	s.Shutdown(time.Second)

	assert.Equal(t, int32(1), runs.Load())
}

type fakeMatcher struct {
	mu    sync.Mutex
	calls []uuid.UUID
	users []string
	err   error
}

func (f *fakeMatcher) RunAutoMatching(_ context.Context, companyID uuid.UUID, userID string, bankAccountID *uuid.UUID) (*service.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, companyID)
	f.users = append(f.users, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &service.RunSummary{CompanyID: companyID}, nil
}

type fakeLister struct {
	ids []uuid.UUID
	err error
}

func (f fakeLister) CompaniesWithUnmatched(context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

func TestAutoMatchJobs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	matcher := &fakeMatcher{}

	jobs, err := AutoMatchJobs(fakeLister{ids: []uuid.UUID{a, b}}, matcher, "system")(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, a.String(), jobs[0].CompanyID())
	assert.Equal(t, "auto-match", jobs[0].Description())

	for _, job := range jobs {
		require.NoError(t, job.Execute(context.Background()))
	}
	assert.Equal(t, []uuid.UUID{a, b}, matcher.calls)
	assert.Equal(t, []string{"system", "system"}, matcher.users)

	_, err = AutoMatchJobs(fakeLister{err: errors.New("db down")}, matcher, "system")(context.Background())
	assert.Error(t, err)
}

func TestAutoMatchJob_WrapsError(t *testing.T) {
	cause := errors.New("store unavailable")
	job := NewAutoMatchJob(uuid.New(), "system", &fakeMatcher{err: cause})

	err := job.Execute(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), job.CompanyID())
}

func TestAutoMatchJob_InFlightRunIsNotAnError(t *testing.T) {
	job := NewAutoMatchJob(uuid.New(), "system", &fakeMatcher{err: service.ErrRunInProgress})
	assert.NoError(t, job.Execute(context.Background()))
}
