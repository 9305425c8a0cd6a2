package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
	"github.com/cuongbtq/render-worker/shared/redis"
)

// blockTimeout bounds one BLPOP so cancellation is noticed between calls.
// go-redis does not interrupt a blocking read when ctx is canceled.
const blockTimeout = time.Second

// RedisQueue keeps the pending and result stores in two Redis lists.
// Fetch is a BLPOP loop, acknowledge is RPUSH. Lists survive worker
// restarts as long as Redis persists them.
type RedisQueue struct {
	client     *redis.Client
	rdb        *goredis.Client
	pendingKey string
	resultKey  string
	logger     *slog.Logger
}

// NewRedisQueue creates a queue over an established client
func NewRedisQueue(client *redis.Client, pendingKey, resultKey string, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{
		client:     client,
		rdb:        client.GetClient(),
		pendingKey: pendingKey,
		resultKey:  resultKey,
		logger:     logger,
	}
}

// NextJob blocks on BLPOP until a job is pushed onto the pending list or
// ctx is done
func (q *RedisQueue) NextJob(ctx context.Context) (domain.RenderJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RenderJob{}, err
		}

		// BLPOP returns [key, value], or redis.Nil when the timeout expires
		res, err := q.rdb.BLPop(ctx, blockTimeout, q.pendingKey).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.RenderJob{}, ctxErr
			}
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return domain.RenderJob{}, domain.NewTransportError("blpop "+q.pendingKey, err)
		}

		if len(res) != 2 {
			return domain.RenderJob{}, domain.NewTransportError("blpop "+q.pendingKey, errors.New("unexpected reply length"))
		}

		q.logger.Debug("Popped job payload",
			slog.String("queue", q.pendingKey),
			slog.Int("payload_size", len(res[1])),
		)

		return decodeJob("decode job from "+q.pendingKey, []byte(res[1]))
	}
}

// Acknowledge pushes the result onto the right of the result list
func (q *RedisQueue) Acknowledge(ctx context.Context, result domain.RenderedJob) error {
	payload, err := encode("encode result", result)
	if err != nil {
		return err
	}

	if err := q.rdb.RPush(ctx, q.resultKey, payload).Err(); err != nil {
		return domain.NewTransportError("rpush "+q.resultKey, err)
	}

	return nil
}

// Enqueue pushes a job onto the right of the pending list
func (q *RedisQueue) Enqueue(ctx context.Context, job domain.RenderJob) error {
	payload, err := encode("encode job", job)
	if err != nil {
		return err
	}

	if err := q.rdb.RPush(ctx, q.pendingKey, payload).Err(); err != nil {
		return domain.NewTransportError("rpush "+q.pendingKey, err)
	}

	return nil
}

// ListResults reads a window of the result list without removing anything
func (q *RedisQueue) ListResults(ctx context.Context, offset, limit int64) ([]domain.RenderedJob, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []domain.RenderedJob{}, nil
	}

	payloads, err := q.rdb.LRange(ctx, q.resultKey, offset, offset+limit-1).Result()
	if err != nil {
		return nil, domain.NewTransportError("lrange "+q.resultKey, err)
	}

	results := make([]domain.RenderedJob, 0, len(payloads))
	for _, payload := range payloads {
		result, err := decodeResult("decode result from "+q.resultKey, []byte(payload))
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// Ping checks the Redis connection
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return domain.NewTransportError("ping", err)
	}
	return nil
}

// Close closes the underlying client
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
