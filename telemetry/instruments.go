package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricEvaluations = "stepcalc.evaluations"
	MetricFailures    = "stepcalc.failures"
	MetricDuration    = "stepcalc.evaluation.duration"
	MetricSteps       = "stepcalc.evaluation.steps"
)

// Instruments records evaluation metrics.
type Instruments struct {
	evaluations metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
	steps       metric.Int64Histogram
}

// NewInstruments creates the evaluation instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	evals, err := meter.Int64Counter(MetricEvaluations,
		metric.WithDescription("Number of expressions evaluated"),
	)
	if err != nil {
		return nil, err
	}
	fails, err := meter.Int64Counter(MetricFailures,
		metric.WithDescription("Number of expressions that failed to evaluate"),
	)
	if err != nil {
		return nil, err
	}
	dur, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of evaluation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	steps, err := meter.Int64Histogram(MetricSteps,
		metric.WithDescription("Number of steps recorded per evaluation"),
	)
	if err != nil {
		return nil, err
	}
	return &Instruments{
		evaluations: evals,
		failures:    fails,
		duration:    dur,
		steps:       steps,
	}, nil
}

// Record records one evaluation. kind is the kind of the result, or empty if
// errType is set. errType names the type of error on failure.
func (in *Instruments) Record(ctx context.Context, kind, errType string, elapsed time.Duration, steps int) {
	if in == nil {
		return
	}
	if errType != "" {
		in.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("error_type", errType)))
		in.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", "error")))
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	in.evaluations.Add(ctx, 1, attrs)
	in.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", "ok")))
	in.steps.Record(ctx, int64(steps), attrs)
}
