// Package middleware provides cross-cutting concerns for the
// calculation engine: metrics, tracing, and repository decorators.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fieldcalc/calc-engine/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of execution volume,
// latency, and failure modes for the calculation engine.
type PrometheusMetrics struct {
	executionsTotal    *prometheus.CounterVec
	executionLatency   *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	operationCounter   *prometheus.CounterVec
	systemGauges       *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all required metrics in the given registerer. Pass nil to
// use the global Prometheus registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}

	return &PrometheusMetrics{
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calc_executions_total",
				Help: "Total number of template executions by terminal status.",
			},
			[]string{"template_id", "status"},
		),
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "calc_execution_duration_seconds",
				Help:    "End-to-end execution time of calculation operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calc_validation_failures_total",
				Help: "Total number of executions rejected by parameter validation.",
			},
			[]string{"template_id"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calc_operations_total",
				Help: "Total number of engine operations performed.",
			},
			[]string{"operation", "status"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "calc_system_state",
				Help: "Current system state values for the calculation engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	status, ok := labels["status"]
	if !ok {
		status = "unknown"
	}
	pm.executionLatency.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	status, ok := labels["status"]
	if !ok {
		status = "success"
	}

	switch metric {
	case "calc_executions_total":
		pm.executionsTotal.WithLabelValues(labels["template_id"], status).Add(value)
	case "calc_validation_failures_total":
		pm.validationFailures.WithLabelValues(labels["template_id"]).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, status).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}
