package audit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trustlens/trustlens/pkg/defaults"
)

// TracingOptions configures span export to an OpenTelemetry collector.
type TracingOptions struct {
	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	Endpoint string

	// ServiceName for exported traces (default: "trustlens").
	ServiceName string

	// Insecure skips TLS on the collector connection.
	Insecure bool

	// ConnectTimeout bounds exporter setup (default: 10s).
	ConnectTimeout time.Duration
}

// SetupTracing installs a global tracer provider exporting to the
// configured collector. The pipeline's spans are dropped until this is
// called. Returns a shutdown function that flushes pending spans.
func SetupTracing(ctx context.Context, opts TracingOptions) (func(context.Context) error, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "trustlens"
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4317"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	exporter, err := otlptracegrpc.New(connectCtx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "audit"),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
