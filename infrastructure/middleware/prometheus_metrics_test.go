package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewPrometheusMetrics(t *testing.T) {
	// A fresh registry per test avoids duplicate registration panics.
	pm := NewPrometheusMetrics(prometheus.NewRegistry())

	assert.NotNil(t, pm.executionsTotal, "executionsTotal should be initialized")
	assert.NotNil(t, pm.executionLatency, "executionLatency should be initialized")
	assert.NotNil(t, pm.validationFailures, "validationFailures should be initialized")
	assert.NotNil(t, pm.operationCounter, "operationCounter should be initialized")
	assert.NotNil(t, pm.systemGauges, "systemGauges should be initialized")
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := NewPrometheusMetrics(prometheus.NewRegistry())

	tests := []struct {
		name      string
		operation string
		duration  time.Duration
		labels    map[string]string
	}{
		{
			name:      "latency with status label",
			operation: "execute_calculation",
			duration:  120 * time.Millisecond,
			labels:    map[string]string{"status": "success"},
		},
		{
			name:      "latency without status label",
			operation: "execute_calculation",
			duration:  40 * time.Millisecond,
			labels:    map[string]string{"template_id": "residential-load"},
		},
		{
			name:      "latency with nil labels",
			operation: "search_templates",
			duration:  5 * time.Millisecond,
			labels:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordLatency(tt.operation, tt.duration, tt.labels)
			})
		})
	}
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := NewPrometheusMetrics(prometheus.NewRegistry())

	tests := []struct {
		name   string
		metric string
		value  float64
		labels map[string]string
	}{
		{
			name:   "execution counter",
			metric: "calc_executions_total",
			value:  1,
			labels: map[string]string{"template_id": "residential-load", "status": "success"},
		},
		{
			name:   "validation failure counter",
			metric: "calc_validation_failures_total",
			value:  1,
			labels: map[string]string{"template_id": "residential-load"},
		},
		{
			name:   "generic operation counter",
			metric: "favorites_toggled",
			value:  1,
			labels: map[string]string{"status": "success"},
		},
		{
			name:   "counter with nil labels",
			metric: "catalog_searches",
			value:  2,
			labels: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordCounter(tt.metric, tt.value, tt.labels)
			})
		})
	}
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm := NewPrometheusMetrics(prometheus.NewRegistry())

	assert.NotPanics(t, func() {
		pm.RecordGauge("active_templates", 42, nil)
		pm.RecordGauge("active_templates", 40, nil)
	})
}
