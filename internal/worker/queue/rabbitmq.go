package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/render-worker/internal/worker/domain"
)

const contentTypeJSON = "application/json"

// amqpClient is the subset of shared/rabbitmq.Client the queue uses
type amqpClient interface {
	Publish(ctx context.Context, routingKey string, body []byte, contentType string) error
	Consume(queue, consumerTag string) (<-chan amqp.Delivery, error)
	IsConnected() bool
	Close() error
}

// RabbitQueue uses a RabbitMQ queue as the pending store and a second queue
// as the result store. A delivery is acked as soon as it is received, so a
// fetched job is gone from the broker just like a popped list entry.
type RabbitQueue struct {
	client      amqpClient
	pendingName string
	resultName  string
	consumerTag string
	logger      *slog.Logger

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewRabbitQueue creates a queue over a connected client whose exchange has
// both queues bound by name
func NewRabbitQueue(client amqpClient, pendingName, resultName string, logger *slog.Logger) *RabbitQueue {
	return &RabbitQueue{
		client:      client,
		pendingName: pendingName,
		resultName:  resultName,
		consumerTag: "render-worker-" + uuid.NewString(),
		logger:      logger,
	}
}

// consume starts the consumer on first use
func (q *RabbitQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.deliveries != nil {
		return q.deliveries, nil
	}

	deliveries, err := q.client.Consume(q.pendingName, q.consumerTag)
	if err != nil {
		return nil, domain.NewTransportError("consume "+q.pendingName, err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// NextJob waits for the next delivery, acks it and decodes the job
func (q *RabbitQueue) NextJob(ctx context.Context) (domain.RenderJob, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.RenderJob{}, err
	}

	select {
	case <-ctx.Done():
		return domain.RenderJob{}, ctx.Err()

	case delivery, ok := <-deliveries:
		if !ok {
			return domain.RenderJob{}, domain.NewTransportError("consume "+q.pendingName, errors.New("delivery channel closed"))
		}

		if err := delivery.Ack(false); err != nil {
			return domain.RenderJob{}, domain.NewTransportError("ack delivery", err)
		}

		q.logger.Debug("Received job delivery",
			slog.String("queue", q.pendingName),
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
		)

		return decodeJob("decode job from "+q.pendingName, delivery.Body)
	}
}

// Acknowledge publishes the result to the result queue
func (q *RabbitQueue) Acknowledge(ctx context.Context, result domain.RenderedJob) error {
	payload, err := encode("encode result", result)
	if err != nil {
		return err
	}

	if err := q.client.Publish(ctx, q.resultName, payload, contentTypeJSON); err != nil {
		return domain.NewTransportError("publish "+q.resultName, err)
	}

	return nil
}

// Enqueue publishes a job to the pending queue
func (q *RabbitQueue) Enqueue(ctx context.Context, job domain.RenderJob) error {
	payload, err := encode("encode job", job)
	if err != nil {
		return err
	}

	if err := q.client.Publish(ctx, q.pendingName, payload, contentTypeJSON); err != nil {
		return domain.NewTransportError("publish "+q.pendingName, err)
	}

	return nil
}

// Ping reports whether the broker connection is still open
func (q *RabbitQueue) Ping(context.Context) error {
	if !q.client.IsConnected() {
		return domain.NewTransportError("ping", errors.New("not connected to RabbitMQ"))
	}
	return nil
}

// Close closes the broker connection
func (q *RabbitQueue) Close() error {
	return q.client.Close()
}
