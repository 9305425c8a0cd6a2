package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cuongbtq/render-worker/internal/worker/automation"
	"github.com/cuongbtq/render-worker/internal/worker/queue"
)

// Config holds worker configuration
type Config struct {
	Logger   *slog.Logger
	Queue    queue.JobQueue
	Renderer automation.Renderer
	Metrics  *Metrics
}

// Worker runs one processor under a unique worker id
type Worker struct {
	workerID  string
	logger    *slog.Logger
	processor *Processor
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := uuid.NewString()
	logger := cfg.Logger.With(slog.String("worker_id", workerID))

	return &Worker{
		workerID:  workerID,
		logger:    logger,
		processor: NewProcessor(cfg.Queue, cfg.Renderer, cfg.Metrics, logger),
	}
}

// ID returns the worker id
func (w *Worker) ID() string {
	return w.workerID
}

// Start processes jobs until ctx is done or a cycle fails. A done ctx is a
// clean stop and returns nil.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker")

	err := w.processor.Run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		w.logger.Info("Worker context done, stopping...",
			slog.String("reason", ctxErr.Error()),
		)
		return nil
	}

	w.logger.Error("Worker stopped on error",
		slog.String("state", w.processor.State().String()),
		slog.Any("error", err),
	)
	return err
}
