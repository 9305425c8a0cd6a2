package queue

import (
	"context"
	"sync"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

// MemoryQueue keeps the pending and result stores in process memory. It is
// meant for standalone runs and tests; everything is lost on exit.
type MemoryQueue struct {
	mu      sync.Mutex
	jobs    []domain.RenderJob
	results []domain.RenderedJob

	// wake holds at most one pending signal so a push made before the
	// waiter blocks is not lost
	wake chan struct{}
}

// NewMemoryQueue creates an empty in-process queue
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends a job to the pending store and wakes one blocked NextJob
func (q *MemoryQueue) Push(job domain.RenderJob) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	q.signal()
}

// Enqueue implements Enqueuer
func (q *MemoryQueue) Enqueue(_ context.Context, job domain.RenderJob) error {
	q.Push(job)
	return nil
}

// NextJob pops the oldest job, blocking until one is pushed or ctx is done
func (q *MemoryQueue) NextJob(ctx context.Context) (domain.RenderJob, error) {
	for {
		if job, ok := q.pop(); ok {
			return job, nil
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return domain.RenderJob{}, ctx.Err()
		}
	}
}

func (q *MemoryQueue) pop() (domain.RenderJob, bool) {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		return domain.RenderJob{}, false
	}

	job := q.jobs[0]
	q.jobs[0] = domain.RenderJob{}
	q.jobs = q.jobs[1:]
	remaining := len(q.jobs)
	q.mu.Unlock()

	// Pass the wakeup on: several pushes may have collapsed into one signal
	if remaining > 0 {
		q.signal()
	}

	return job, true
}

func (q *MemoryQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Acknowledge appends the result to the result store
func (q *MemoryQueue) Acknowledge(_ context.Context, result domain.RenderedJob) error {
	q.mu.Lock()
	q.results = append(q.results, result)
	q.mu.Unlock()
	return nil
}

// Results returns a copy of every result acknowledged so far
func (q *MemoryQueue) Results() []domain.RenderedJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.RenderedJob, len(q.results))
	copy(out, q.results)
	return out
}

// Pending returns the number of jobs waiting to be fetched
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// ListResults implements ResultReader
func (q *MemoryQueue) ListResults(_ context.Context, offset, limit int64) ([]domain.RenderedJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if offset < 0 {
		offset = 0
	}

	total := int64(len(q.results))
	if offset >= total || limit <= 0 {
		return []domain.RenderedJob{}, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]domain.RenderedJob, end-offset)
	copy(out, q.results[offset:end])
	return out, nil
}

// Ping always succeeds
func (q *MemoryQueue) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (q *MemoryQueue) Close() error {
	return nil
}
