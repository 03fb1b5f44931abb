package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName is reported as service.name on every exported span.
const ServiceName = "fraudpulse"

// ModelVersionKey tags spans with the scoring artifact that produced them.
const ModelVersionKey = attribute.Key("fraudpulse.model.version")

// Options controls span export. An empty Endpoint keeps tracing local.
type Options struct {
	Endpoint     string
	Insecure     bool
	ModelVersion string
}

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

// Init installs the global tracer provider and the W3C trace-context
// propagator. The propagator is installed even without an exporter so an
// inbound traceparent is still carried through.
func Init(ctx context.Context, opts Options) (Shutdown, error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if opts.Endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	res, err := Resource(ctx, opts.ModelVersion)
	if err != nil {
		return nil, err
	}

	exportOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exportOpts = append(exportOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, exportOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter %s: %w", opts.Endpoint, err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// Resource describes this process: the service name plus the loaded model
// version when known.
func Resource(ctx context.Context, modelVersion string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(ServiceName)}
	if modelVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(modelVersion), ModelVersionKey.String(modelVersion))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	return res, nil
}

// Tracer returns a tracer scoped under the service name.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(ServiceName + "/" + component)
}
