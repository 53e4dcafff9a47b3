// Package telemetry installs the OpenTelemetry tracer provider that
// switcher.TracingObserver reports sequence spans to.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amp-labs/autoswitch/stage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// GKECollectorEndpoint is the collector used when running in Kubernetes and
// no endpoint is configured.
const GKECollectorEndpoint = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"

//nolint:gochecknoglobals
var (
	providerMu     sync.Mutex
	tracerProvider *sdktrace.TracerProvider
)

// Config holds the OpenTelemetry configuration. It is parsed from the
// environment as part of the application config.
type Config struct {
	Enabled        bool          `env:"OTEL_ENABLED"                      envDefault:"false"`
	ServiceName    string        `env:"OTEL_SERVICE_NAME"`
	ServiceVersion string        `env:"OTEL_SERVICE_VERSION"              envDefault:"1.0.0"`
	Environment    stage.Stage   `env:"RUNNING_ENV"                       envDefault:"local"`
	Endpoint       string        `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	Timeout        time.Duration `env:"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT" envDefault:"5s"`
}

// DefaultEndpoint returns the collector endpoint to use when none is
// configured: the in-cluster collector under Kubernetes, otherwise none.
func DefaultEndpoint() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return GKECollectorEndpoint
	}

	return ""
}

// Initialize sets up OpenTelemetry tracing with the given configuration.
// Tracing stays on the global no-op provider when it is disabled or has no
// endpoint.
func Initialize(ctx context.Context, config Config) error {
	if !config.Enabled {
		slog.Info("OpenTelemetry tracing is disabled")

		return nil
	}

	if config.Endpoint == "" {
		slog.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment.String()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	providerMu.Lock()
	tracerProvider = provider
	providerMu.Unlock()

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment.String(),
		"endpoint", config.Endpoint,
	)

	return nil
}

// Shutdown flushes and shuts down the tracer provider installed by
// Initialize. It is a no-op when tracing was never initialized.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	provider := tracerProvider
	tracerProvider = nil
	providerMu.Unlock()

	if provider == nil {
		return nil
	}

	slog.Info("Shutting down OpenTelemetry tracer provider")

	return provider.Shutdown(ctx)
}
