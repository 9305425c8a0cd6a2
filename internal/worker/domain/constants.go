package domain

// Queue backends
const (
	QueueBackendRedis    = "redis"
	QueueBackendRabbitMQ = "rabbitmq"
	QueueBackendPostgres = "postgres"
	QueueBackendMemory   = "memory"
)

// Automation engines
const (
	EngineChromium = "chromium"
	EngineFallback = "fallback"
)

const (
	// DefaultQueueName is the pending list name used when none is configured
	DefaultQueueName = "render-jobs"

	// ResultQueueSuffix is appended to the pending list name to derive the result list name
	ResultQueueSuffix = ":results"
)

// ResultQueueName derives the result list name from a pending list name
func ResultQueueName(queueName string) string {
	return queueName + ResultQueueSuffix
}
