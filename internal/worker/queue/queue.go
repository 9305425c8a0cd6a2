// Package queue provides the job sources the processor pulls from and the
// result stores it acknowledges into.
//
// Every backend removes a job from the pending store when it is fetched and
// never puts it back: delivery is at most once. A worker that dies between
// NextJob and Acknowledge loses that job.
package queue

import (
	"context"
	"encoding/json"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

// JobQueue is the contract the processor depends on
type JobQueue interface {
	// NextJob blocks until a job is available and returns it removed from
	// the pending store. It never returns an empty job without an error.
	NextJob(ctx context.Context) (domain.RenderJob, error)

	// Acknowledge appends a result to the result store. Calling it twice
	// appends twice.
	Acknowledge(ctx context.Context, result domain.RenderedJob) error
}

// Enqueuer is the producer side of a queue
type Enqueuer interface {
	Enqueue(ctx context.Context, job domain.RenderJob) error
}

// ResultReader lists acknowledged results in acknowledgement order
type ResultReader interface {
	ListResults(ctx context.Context, offset, limit int64) ([]domain.RenderedJob, error)
}

// Backend is a queue usable by both the worker and the intake API
type Backend interface {
	JobQueue
	Enqueuer
	Ping(ctx context.Context) error
	Close() error
}

func decodeJob(op string, payload []byte) (domain.RenderJob, error) {
	var job domain.RenderJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return domain.RenderJob{}, domain.NewSerializationError(op, err)
	}
	return job, nil
}

func decodeResult(op string, payload []byte) (domain.RenderedJob, error) {
	var result domain.RenderedJob
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.RenderedJob{}, domain.NewSerializationError(op, err)
	}
	return result, nil
}

func encode(op string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, domain.NewSerializationError(op, err)
	}
	return payload, nil
}
