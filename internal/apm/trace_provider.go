// Package apm configures OpenTelemetry tracing for the scanner.
package apm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/dex-scanner/internal/logger"
)

// Provider selects the span exporter.
type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	OTLPGRPCProvider Provider = "otlp_grpc"
	OTLPHTTPProvider Provider = "otlp_http"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "none"
)

// TraceProvider flushes and stops tracing.
type TraceProvider interface {
	Stop() error
}

// Config selects and configures the exporter.
type Config struct {
	ServiceName string
	Provider    Provider
	Endpoint    string
	// Headers in k=v,k2=v2 form, sent with OTLP exports.
	Headers string
	// ConsoleWriter receives console spans; defaults to stdout.
	ConsoleWriter io.Writer
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// NewTraceProvider installs a global tracer provider for cfg.Provider.
func NewTraceProvider(ctx context.Context, cfg Config, log logger.LoggerInterface) (TraceProvider, error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Provider, err)
	}
	if exp == nil {
		log.Info(ctx, "tracing disabled", "provider", string(EmptyProvider))
		return emptyTraceProvider{}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("otel.provider", string(cfg.Provider)),
		))
	if err != nil {
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing initialized", "provider", string(cfg.Provider), "endpoint", cfg.Endpoint)
	return &traceProvider{tp: tp}, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Provider {
	case EmptyProvider, "":
		return nil, nil
	case ConsoleProvider:
		w := cfg.ConsoleWriter
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case ZipkinProvider:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("zipkin endpoint is required")
		}
		return zipkin.New(cfg.Endpoint)
	case OTLPGRPCProvider:
		opts := []otlptracegrpc.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
		}
		if h := parseHeaders(cfg.Headers); len(h) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(h))
		}
		return otlptracegrpc.New(ctx, opts...)
	case OTLPHTTPProvider:
		opts := []otlptracehttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		if h := parseHeaders(cfg.Headers); len(h) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(h))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown trace provider %q", cfg.Provider)
	}
}

func parseHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k != "" {
			out[k] = v
		}
	}
	return out
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}
