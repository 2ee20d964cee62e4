package ports

import (
	"context"
	"time"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

// CacheStore defines the interface for caching catalog reads.
// Implementations could use Redis, Memcached, or in-memory storage.
// Caching is optional; the engine works against the repositories
// directly when no cache is configured.
type CacheStore interface {
	// Get retrieves a cached value by key.
	// It returns the value and true if found, or nil and false if not.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value in the cache with an expiration time.
	// A zero duration means the item does not expire.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Delete removes a value from the cache.
	// It returns nil if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Clear removes every value held by this cache.
	Clear(ctx context.Context) error
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability
// platforms like Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// Useful for tracking events like executions, failures, cache hits.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}

// ExecutionObserver receives notifications around template executions.
// Observers add cross-cutting concerns such as tracing without the
// orchestrator depending on any observability library.
type ExecutionObserver interface {
	// ExecutionStarted is called before an execution begins. The
	// returned context is threaded through the execution, letting the
	// observer attach span state.
	ExecutionStarted(ctx context.Context, templateID string) context.Context

	// ExecutionFinished is called after the execution completes, with
	// the produced result (nil on failure), the elapsed wall time, and
	// the terminal error, if any.
	ExecutionFinished(ctx context.Context, templateID string, result *domain.CalculationResult, elapsed time.Duration, err error)
}
