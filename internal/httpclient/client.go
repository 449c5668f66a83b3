package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	instrumentationName = "github.com/fd1az/dex-scanner/internal/httpclient"
)

// Client issues instrumented requests against one remote service.
type Client struct {
	http         *http.Client
	tracer       trace.Tracer
	requests     metric.Int64Counter
	latency      metric.Float64Histogram
	providerName string
	baseURL      string
	headers      map[string]string
	limiter      *ratelimit.Limiter
	traceBodies  bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	o := clientOptions{providerName: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultRequestTimeout}
	}
	if o.requestTimeout > 0 {
		hc.Timeout = o.requestTimeout
	}

	base := o.roundTripper
	if base == nil {
		base = hc.Transport
	}
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}
	hc.Transport = otelhttp.NewTransport(base,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		"http_client_requests_total",
		metric.WithDescription("Outbound HTTP requests by provider and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	latency, err := meter.Float64Histogram(
		"http_client_request_duration_ms",
		metric.WithDescription("Outbound HTTP request latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return &Client{
		http:         hc,
		tracer:       tracer,
		requests:     requests,
		latency:      latency,
		providerName: o.providerName,
		baseURL:      strings.TrimSuffix(o.baseURL, "/"),
		headers:      o.headers,
		limiter:      o.limiter,
		traceBodies:  o.traceBodies,
	}, nil
}

// Get issues a GET request. path may be absolute or relative to the base URL.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// PostJSON issues a POST request with body encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("encode request body"), apperror.WithCause(err))
	}
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

func (c *Client) resolve(path string, query url.Values) string {
	full := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if path == "" {
			full = c.baseURL
		} else {
			full = c.baseURL + "/" + strings.TrimPrefix(path, "/")
		}
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + query.Encode()
	}
	return full
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*Response, error) {
	target := c.resolve(path, query)

	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
			attribute.String("provider", c.providerName),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter wait")
		c.record(ctx, method, 0, 0, false)
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext(c.providerName), apperror.WithCause(err))
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
		if c.traceBodies {
			span.AddEvent("request.body", trace.WithAttributes(attribute.String("http.request_body", string(body))))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext(target), apperror.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		c.recordTransportError(span, err)
		c.record(ctx, method, 0, elapsed, false)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		c.record(ctx, method, resp.StatusCode, elapsed, false)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Duration:   elapsed,
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.traceBodies {
		span.AddEvent("response.body", trace.WithAttributes(attribute.String("http.response_body", string(data))))
	}
	if !out.IsSuccess() {
		span.SetStatus(codes.Error, resp.Status)
	}
	c.record(ctx, method, resp.StatusCode, elapsed, out.IsSuccess())

	return out, nil
}

func (c *Client) recordTransportError(span trace.Span, err error) {
	span.RecordError(err)
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}
	span.SetStatus(codes.Error, err.Error())
}

func (c *Client) record(ctx context.Context, method string, status int, elapsed time.Duration, success bool) {
	attrs := metric.WithAttributes(
		attribute.String("provider", c.providerName),
		attribute.String("method", method),
		attribute.Int("status", status),
		attribute.Bool("success", success),
	)
	c.requests.Add(ctx, 1, attrs)
	if elapsed > 0 {
		c.latency.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
	}
}
