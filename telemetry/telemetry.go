// Package telemetry sets up OpenTelemetry tracing and metrics for evaluations.
package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ScopeName names the tracer and meter used for evaluations.
const ScopeName = "github.com/zephyrtronium/stepcalc"

// DefaultServiceName is the service name reported when none is configured.
const DefaultServiceName = "stepcalc"

// Config configures telemetry.
type Config struct {
	// Endpoint is the host:port of an OTLP/HTTP collector. When empty, spans
	// are not exported.
	Endpoint string
	// ServiceName is the service.name resource attribute.
	ServiceName string
	// Insecure disables TLS to the collector.
	Insecure bool
	// MetricReader, if set, collects metrics. Without one, metrics are
	// aggregated and dropped.
	MetricReader sdkmetric.Reader
}

// Providers holds the tracer and meter providers built by Setup.
type Providers struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	shutdown []func(context.Context) error
}

// Setup builds providers from cfg. With no endpoint and no metric reader it
// returns no-op providers.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	if cfg.Endpoint == "" && cfg.MetricReader == nil {
		return Noop(), nil
	}
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = DefaultServiceName
	}
	res := resource.NewSchemaless(attribute.String("service.name", name))

	p := new(Providers)
	topts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.Endpoint != "" {
		eopts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			eopts = append(eopts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, eopts...)
		if err != nil {
			return nil, err
		}
		topts = append(topts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(topts...)
	p.TracerProvider = tp
	p.shutdown = append(p.shutdown, tp.Shutdown)

	mopts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if cfg.MetricReader != nil {
		mopts = append(mopts, sdkmetric.WithReader(cfg.MetricReader))
	}
	mp := sdkmetric.NewMeterProvider(mopts...)
	p.MeterProvider = mp
	p.shutdown = append(p.shutdown, mp.Shutdown)
	return p, nil
}

// Noop returns providers that record nothing.
func Noop() *Providers {
	return &Providers{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
	}
}

// Tracer returns the evaluation tracer.
func (p *Providers) Tracer() trace.Tracer {
	return p.TracerProvider.Tracer(ScopeName)
}

// Meter returns the evaluation meter.
func (p *Providers) Meter() metric.Meter {
	return p.MeterProvider.Meter(ScopeName)
}

// Shutdown flushes and stops the providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, f := range p.shutdown {
		if err := f(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
