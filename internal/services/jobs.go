package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// ErrRunnerClosed is returned by Submit after Shutdown has begun.
var ErrRunnerClosed = errors.New("job runner is shut down")

// JobReporter records progress for a running job.
type JobReporter func(processed, failedPages int)

// JobFunc is the body of a background job.
type JobFunc func(ctx context.Context, report JobReporter) error

// JobRunner runs background jobs detached from the request that started them
// and keeps a bounded in-memory history of their status.
type JobRunner struct {
	mu      sync.Mutex
	jobs    map[string]*models.JobRecord
	order   []string
	history int
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewJobRunner keeps at most history finished jobs. Running jobs are never evicted.
func NewJobRunner(history int) *JobRunner {
	if history <= 0 {
		history = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobRunner{
		jobs:    make(map[string]*models.JobRecord),
		history: history,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Submit starts fn in the background and returns its job ID immediately.
func (r *JobRunner) Submit(name string, total int, fn JobFunc) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrRunnerClosed
	}

	id := uuid.NewString()
	now := r.now().UTC()
	r.jobs[id] = &models.JobRecord{
		JobID:     id,
		Name:      name,
		Status:    models.JobQueued,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.order = append(r.order, id)
	r.evictLocked()

	r.wg.Add(1)
	go r.run(id, fn)
	return id, nil
}

func (r *JobRunner) run(id string, fn JobFunc) {
	defer r.wg.Done()
	logCtx := slog.With("jobId", id)

	r.update(id, func(j *models.JobRecord) { j.Status = models.JobRunning })
	logCtx.Info("Job started.")

	report := func(processed, failedPages int) {
		r.update(id, func(j *models.JobRecord) {
			j.Processed = processed
			j.FailedPages = failedPages
		})
	}

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("job panicked: %v", p)
			}
		}()
		return fn(r.ctx, report)
	}()

	if err != nil {
		logCtx.Error("Job failed.", "error", err)
		r.update(id, func(j *models.JobRecord) {
			j.Status = models.JobFailed
			j.Error = err.Error()
		})
		return
	}
	logCtx.Info("Job finished.")
	r.update(id, func(j *models.JobRecord) { j.Status = models.JobDone })
}

func (r *JobRunner) update(id string, fn func(*models.JobRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		fn(j)
		j.UpdatedAt = r.now().UTC()
	}
}

// evictLocked drops the oldest finished jobs beyond the history bound.
func (r *JobRunner) evictLocked() {
	excess := len(r.order) - r.history
	if excess <= 0 {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && r.jobs[id].Finished() {
			delete(r.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

// Get returns a snapshot of the job's record.
func (r *JobRunner) Get(id string) (models.JobRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return models.JobRecord{}, false
	}
	return *j, true
}

// Shutdown stops accepting jobs, cancels running ones and waits for them to
// return or for ctx to expire.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
