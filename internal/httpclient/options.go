// Package httpclient provides an OTEL-instrumented HTTP client for venue APIs.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

type clientOptions struct {
	httpClient     *http.Client
	roundTripper   http.RoundTripper
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	providerName   string
	baseURL        string
	headers        map[string]string
	requestTimeout time.Duration
	limiter        *ratelimit.Limiter
	traceBodies    bool
}

// Option configures a Client.
type Option func(*clientOptions)

// WithHTTPClient uses an existing http.Client; its transport gets instrumented.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithRoundTripper sets the base transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.roundTripper = rt
	}
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *clientOptions) {
		o.meterProvider = mp
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *clientOptions) {
		o.tracer = t
	}
}

// WithProviderName tags metrics and spans with the remote service name.
func WithProviderName(name string) Option {
	return func(o *clientOptions) {
		o.providerName = name
	}
}

// WithBaseURL is prepended to relative request paths.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithHeaders sets default headers for every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// WithRequestTimeout bounds each request, including reading the body.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.requestTimeout = d
	}
}

// WithLimiter throttles requests before they leave the process.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *clientOptions) {
		o.limiter = l
	}
}

// WithTraceBodies records request and response bodies as span events.
func WithTraceBodies(enabled bool) Option {
	return func(o *clientOptions) {
		o.traceBodies = enabled
	}
}
