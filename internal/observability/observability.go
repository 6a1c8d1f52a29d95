// Package observability provides OpenTelemetry tracing setup for the
// ledgerdesk client. Metrics are handled separately by internal/metrics
// on Prometheus.
package observability

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config holds tracing configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Enabled turns span export on. When false, Setup returns a no-op
	// tracer and the transport adds no overhead.
	Enabled bool
	Logger  *zap.Logger
}

// Tracing owns the tracer provider lifecycle.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Setup initializes tracing. Spans are exported to stderr so they never
// interleave with command output on stdout.
func Setup(cfg Config) (*Tracing, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ledgerdesk"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "0.1.0"
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Enabled {
		return &Tracing{
			tracer: noop.NewTracerProvider().Tracer(cfg.ServiceName),
			logger: logger,
		}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithWriter(os.Stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
		logger:   logger,
	}, nil
}

// Tracer returns the tracer for instrumenting requests.
func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		t.logger.Warn("failed to shut down tracer provider", zap.Error(err))
		return err
	}
	return nil
}
