package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/render-worker/internal/config"
	"github.com/cuongbtq/render-worker/internal/worker/domain"
	"github.com/cuongbtq/render-worker/shared/postgresql"
	"github.com/cuongbtq/render-worker/shared/rabbitmq"
	"github.com/cuongbtq/render-worker/shared/redis"
)

// Open connects the configured backend
func Open(ctx context.Context, cfg *config.QueueConfig, logger *slog.Logger) (Backend, error) {
	logger = logger.With(
		slog.String("queue_backend", cfg.Backend),
		slog.String("queue", cfg.Name),
		slog.String("result_queue", cfg.ResultName),
	)

	switch cfg.Backend {
	case domain.QueueBackendRedis:
		client, err := redis.NewClient(&redis.Config{URL: cfg.Redis.URL}, logger)
		if err != nil {
			return nil, domain.NewTransportError("open redis", err)
		}
		return NewRedisQueue(client, cfg.Name, cfg.ResultName, logger), nil

	case domain.QueueBackendRabbitMQ:
		client, err := rabbitmq.NewClient(&rabbitmq.Config{
			URL:           cfg.RabbitMQ.URL,
			ExchangeName:  cfg.RabbitMQ.Exchange,
			Durable:       cfg.RabbitMQ.Durable,
			Queues:        []string{cfg.Name, cfg.ResultName},
			PrefetchCount: 1,
			RetryAttempts: cfg.RabbitMQ.Connection.RetryAttempts,
			RetryInterval: cfg.RabbitMQ.Connection.RetryInterval,
			Heartbeat:     cfg.RabbitMQ.Connection.Heartbeat,
		}, logger)
		if err != nil {
			return nil, domain.NewTransportError("open rabbitmq", err)
		}
		return NewRabbitQueue(client, cfg.Name, cfg.ResultName, logger), nil

	case domain.QueueBackendPostgres:
		client, err := postgresql.NewClient(&postgresql.Config{
			URL:             cfg.Postgres.URL,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, domain.NewTransportError("open postgres", err)
		}
		q := NewPostgresQueue(client.GetDB(), client.DSN(), cfg.Name, cfg.ResultName, cfg.Postgres.PollInterval, logger)
		if err := q.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return q, nil

	case domain.QueueBackendMemory:
		logger.Warn("Using in-process queue; jobs are lost on exit and invisible to other processes")
		return NewMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unknown queue backend: %q", cfg.Backend)
	}
}
