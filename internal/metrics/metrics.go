// Package metrics installs the OpenTelemetry meter provider and serves the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/dex-scanner/internal/logger"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func readers(ctx context.Context, cfg Config) ([]sdkmetric.Reader, error) {
	var out []sdkmetric.Reader

	for _, provider := range cfg.Provider {
		switch provider.Provider {
		case PrometheusProvider:
			promExporter, err := prometheus.New()
			if err != nil {
				return nil, fmt.Errorf("prometheus exporter: %w", err)
			}
			out = append(out, promExporter)
		case OtelCollector:
			opts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(provider.Endpoint),
				otlpmetricgrpc.WithHeaders(provider.Headers),
			}
			if provider.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}
			exp, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("otlp metric exporter: %w", err)
			}
			out = append(out, sdkmetric.NewPeriodicReader(exp))
		default:
			return nil, fmt.Errorf("unknown metric provider %q", provider.Provider)
		}
	}

	return out, nil
}

// NewMetricProvider builds the meter provider from options and installs it globally.
func NewMetricProvider(ctx context.Context, options ...OptionFn) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}
	if len(cfg.Provider) == 0 {
		cfg.Provider = []ProviderCfg{{Provider: PrometheusProvider}}
	}

	rs, err := readers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := make([]sdkmetric.Option, 0, len(rs)+1)
	for _, r := range rs {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, nil
}

// PrometheusServer serves /metrics from the default Prometheus registry.
type PrometheusServer struct {
	server *http.Server
	log    logger.LoggerInterface
}

// NewPrometheusServer creates a scrape server on port.
func NewPrometheusServer(port int, log logger.LoggerInterface) *PrometheusServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &PrometheusServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background.
func (p *PrometheusServer) Start(ctx context.Context) {
	go func() {
		p.log.Info(ctx, "serving prometheus metrics", "addr", p.server.Addr, "path", "/metrics")
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error(ctx, "prometheus server stopped", "error", err)
		}
	}()
}

// Stop shuts the server down.
func (p *PrometheusServer) Stop(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}
