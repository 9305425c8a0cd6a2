package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/render-worker/internal/worker/automation"
	"github.com/cuongbtq/render-worker/internal/worker/queue"
)

// ErrAborted is returned by a processor that already failed
var ErrAborted = errors.New("processor aborted")

// State is the processor's position in the fetch, render, acknowledge cycle
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateRendering
	StateAcknowledging
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateRendering:
		return "rendering"
	case StateAcknowledging:
		return "acknowledging"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Processor moves jobs from a queue through a renderer and back. It handles
// one job at a time and never retries.
type Processor struct {
	queue    queue.JobQueue
	renderer automation.Renderer
	metrics  *Metrics
	logger   *slog.Logger
	state    atomic.Int32
}

// NewProcessor creates a processor
func NewProcessor(q queue.JobQueue, renderer automation.Renderer, metrics *Metrics, logger *slog.Logger) *Processor {
	return &Processor{
		queue:    q,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
	}
}

// State returns the current state
func (p *Processor) State() State {
	return State(p.state.Load())
}

func (p *Processor) setState(s State) {
	p.state.Store(int32(s))
	p.metrics.State.Set(float64(s))
}

// ProcessOnce fetches one job, renders it and acknowledges the result. The
// first error is returned as is; a rendered result is dropped when the
// acknowledge fails.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	if p.State() == StateAborted {
		return ErrAborted
	}

	p.setState(StateFetching)
	job, err := p.queue.NextJob(ctx)
	if err != nil {
		return p.fail(ctx, StageFetch, "", err)
	}

	p.logger.Debug("Fetched job",
		slog.String("job_id", job.ID),
		slog.String("label", job.Label),
	)

	p.setState(StateRendering)
	start := time.Now()
	result, err := p.renderer.Render(ctx, job)
	if err != nil {
		return p.fail(ctx, StageRender, job.ID, err)
	}
	p.metrics.RenderDuration.Observe(time.Since(start).Seconds())

	p.setState(StateAcknowledging)
	if err := p.queue.Acknowledge(ctx, result); err != nil {
		return p.fail(ctx, StageAcknowledge, job.ID, err)
	}

	p.metrics.JobsProcessed.Inc()
	p.setState(StateIdle)

	p.logger.Info("Job processed",
		slog.String("job_id", job.ID),
		slog.Int("text_length", len(result.TextContent)),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

// fail moves the processor to the terminal state. Cancellation is recorded
// as a shutdown rather than a failure.
func (p *Processor) fail(ctx context.Context, stage, jobID string, err error) error {
	p.setState(StateAborted)

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		p.logger.Info("Processor stopped",
			slog.String("stage", stage),
			slog.String("job_id", jobID),
		)
		return err
	}

	p.metrics.JobFailures.WithLabelValues(stage).Inc()
	p.logger.Error("Processing failed",
		slog.String("stage", stage),
		slog.String("job_id", jobID),
		slog.Any("error", err),
	)

	return err
}

// Run processes jobs until the first error and returns it
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("Processor started")

	for {
		if err := p.ProcessOnce(ctx); err != nil {
			return err
		}
	}
}
