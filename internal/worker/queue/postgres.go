package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

// notifyChannel is the LISTEN/NOTIFY channel signalled on every enqueue
const notifyChannel = "render_jobs"

const schema = `
CREATE TABLE IF NOT EXISTS render_jobs (
	seq   BIGSERIAL PRIMARY KEY,
	queue TEXT NOT NULL,
	id    TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	html  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS render_jobs_queue_seq_idx ON render_jobs (queue, seq);

CREATE TABLE IF NOT EXISTS render_results (
	seq          BIGSERIAL PRIMARY KEY,
	queue        TEXT NOT NULL,
	id           TEXT NOT NULL,
	text_content TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS render_results_queue_seq_idx ON render_results (queue, seq);
`

const popJobQuery = `
	DELETE FROM render_jobs
	WHERE seq = (
		SELECT seq FROM render_jobs
		WHERE queue = $1
		ORDER BY seq
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, label, html
`

type jobRow struct {
	ID    string `db:"id"`
	Label string `db:"label"`
	HTML  string `db:"html"`
}

type resultRow struct {
	ID          string `db:"id"`
	TextContent string `db:"text_content"`
}

// PostgresQueue stores pending jobs and results in two tables shared by all
// queue names. Fetch deletes the oldest row of the queue; row locks with
// SKIP LOCKED hand each job to exactly one worker. An empty queue waits for
// a NOTIFY instead of polling in a tight loop.
type PostgresQueue struct {
	db           *sqlx.DB
	dsn          string
	pendingName  string
	resultName   string
	pollInterval time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	listener *pq.Listener
}

// NewPostgresQueue creates a queue over an open database. The dsn is used to
// open the LISTEN connection the first time a worker waits for work.
func NewPostgresQueue(db *sqlx.DB, dsn, pendingName, resultName string, pollInterval time.Duration, logger *slog.Logger) *PostgresQueue {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}

	return &PostgresQueue{
		db:           db,
		dsn:          dsn,
		pendingName:  pendingName,
		resultName:   resultName,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// EnsureSchema creates the queue tables when they do not exist
func (q *PostgresQueue) EnsureSchema(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, schema); err != nil {
		return domain.NewTransportError("ensure schema", err)
	}
	return nil
}

func (q *PostgresQueue) listen() (*pq.Listener, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.listener != nil {
		return q.listener, nil
	}

	listener := pq.NewListener(q.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			q.logger.Warn("PostgreSQL listener event",
				slog.Int("event", int(ev)),
				slog.String("error", err.Error()),
			)
		}
	})

	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		return nil, domain.NewTransportError("listen "+notifyChannel, err)
	}

	q.listener = listener
	return listener, nil
}

// NextJob deletes and returns the oldest job, waiting for a notification
// while the queue is empty
func (q *PostgresQueue) NextJob(ctx context.Context) (domain.RenderJob, error) {
	listener, err := q.listen()
	if err != nil {
		return domain.RenderJob{}, err
	}

	for {
		job, ok, err := q.pop(ctx)
		if err != nil {
			return domain.RenderJob{}, err
		}
		if ok {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return domain.RenderJob{}, ctx.Err()
		case <-listener.Notify:
			// a nil notification means the connection was re-established; re-check either way
		case <-time.After(q.pollInterval):
			if err := listener.Ping(); err != nil {
				q.logger.Warn("PostgreSQL listener ping failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (q *PostgresQueue) pop(ctx context.Context) (domain.RenderJob, bool, error) {
	var row jobRow
	err := q.db.GetContext(ctx, &row, popJobQuery, q.pendingName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RenderJob{}, false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.RenderJob{}, false, ctxErr
		}
		return domain.RenderJob{}, false, domain.NewTransportError("pop "+q.pendingName, err)
	}

	return domain.RenderJob{ID: row.ID, Label: row.Label, HTML: row.HTML}, true, nil
}

// Acknowledge inserts the result row
func (q *PostgresQueue) Acknowledge(ctx context.Context, result domain.RenderedJob) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO render_results (queue, id, text_content) VALUES ($1, $2, $3)`,
		q.resultName, result.ID, result.TextContent,
	)
	if err != nil {
		return domain.NewTransportError("insert result into "+q.resultName, err)
	}
	return nil
}

// Enqueue inserts the job and notifies waiting workers on commit
func (q *PostgresQueue) Enqueue(ctx context.Context, job domain.RenderJob) error {
	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.NewTransportError("begin enqueue", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO render_jobs (queue, id, label, html) VALUES ($1, $2, $3, $4)`,
		q.pendingName, job.ID, job.Label, job.HTML,
	)
	if err != nil {
		return domain.NewTransportError("insert job into "+q.pendingName, err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, q.pendingName); err != nil {
		return domain.NewTransportError("notify "+notifyChannel, err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewTransportError("commit enqueue", err)
	}

	return nil
}

// ListResults reads results in insertion order
func (q *PostgresQueue) ListResults(ctx context.Context, offset, limit int64) ([]domain.RenderedJob, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []domain.RenderedJob{}, nil
	}

	var rows []resultRow
	err := q.db.SelectContext(ctx, &rows,
		`SELECT id, text_content FROM render_results WHERE queue = $1 ORDER BY seq OFFSET $2 LIMIT $3`,
		q.resultName, offset, limit,
	)
	if err != nil {
		return nil, domain.NewTransportError("select results from "+q.resultName, err)
	}

	results := make([]domain.RenderedJob, len(rows))
	for i, row := range rows {
		results[i] = domain.RenderedJob{ID: row.ID, TextContent: row.TextContent}
	}
	return results, nil
}

// Ping checks the database connection
func (q *PostgresQueue) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return domain.NewTransportError("ping", err)
	}
	return nil
}

// Close closes the listener and the database
func (q *PostgresQueue) Close() error {
	q.mu.Lock()
	listener := q.listener
	q.listener = nil
	q.mu.Unlock()

	var errs []error
	if listener != nil {
		if err := listener.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}
	if err := q.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
