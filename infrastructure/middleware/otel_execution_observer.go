package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.ExecutionObserver = (*OTelExecutionObserver)(nil)

// tracerName identifies this instrumentation scope.
const tracerName = "calc-engine"

// spanContextKey carries the active span through the execution context.
type spanContextKey struct{}

// OTelExecutionObserver implements observability for template
// executions using OpenTelemetry tracing. It creates one span per
// execution, annotates it with template and result attributes, and
// optionally forwards counters to a metrics collector.
type OTelExecutionObserver struct {
	metrics ports.MetricsCollector
}

// NewOTelExecutionObserver creates an OpenTelemetry execution observer.
// The metrics collector may be nil.
func NewOTelExecutionObserver(metrics ports.MetricsCollector) *OTelExecutionObserver {
	return &OTelExecutionObserver{metrics: metrics}
}

// ExecutionStarted implements the ExecutionObserver interface. It
// starts a span for the execution and threads it through the returned
// context.
func (o *OTelExecutionObserver) ExecutionStarted(ctx context.Context, templateID string) context.Context {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Orchestrator.ExecuteCalculation")
	span.SetAttributes(attribute.String("calc.template_id", templateID))
	return context.WithValue(ctx, spanContextKey{}, span)
}

// ExecutionFinished implements the ExecutionObserver interface. It
// finalizes the span, classifies the terminal error, and records
// metrics.
func (o *OTelExecutionObserver) ExecutionFinished(ctx context.Context, templateID string, result *domain.CalculationResult, elapsed time.Duration, err error) {
	span, ok := ctx.Value(spanContextKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if o.metrics != nil {
		labels := map[string]string{"template_id": templateID, "status": statusLabel(err)}
		o.metrics.RecordLatency("execute_calculation", elapsed, labels)
	}

	if err != nil {
		span.AddEvent("calc.failed", trace.WithAttributes(
			attribute.String("failure_kind", failureKind(err)),
		))
		span.SetStatus(codes.Error, err.Error())

		if o.metrics != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				o.metrics.RecordCounter("calc_validation_failures_total", 1,
					map[string]string{"template_id": templateID})
			}
		}
		return
	}

	if result != nil {
		span.SetAttributes(
			attribute.String("calc.execution_id", result.ExecutionID),
			attribute.String("calc.primary_unit", result.Primary.Unit),
			attribute.String("calc.compliance", string(result.Compliance.Status)),
		)
	}
	span.SetStatus(codes.Ok, "calculation completed")
}

// failureKind maps the error taxonomy onto a stable span attribute.
func failureKind(err error) string {
	var (
		verr *domain.ValidationError
		cerr *domain.ComputationError
		rerr *domain.RepositoryError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTemplateInactive):
		return "template_inactive"
	case errors.As(err, &verr):
		return "validation_failed"
	case errors.As(err, &cerr):
		return "computation_error"
	case errors.As(err, &rerr):
		return "repository_error"
	default:
		return "unknown"
	}
}

func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
