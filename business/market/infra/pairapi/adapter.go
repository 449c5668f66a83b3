// Package pairapi implements the pair-price venue adapter shared by the AMM venues.
package pairapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/httpclient"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

const (
	tracerName     = "github.com/fd1az/dex-scanner/business/market/infra/pairapi"
	defaultTimeout = 10 * time.Second
)

// Config holds adapter settings for one venue.
type Config struct {
	BaseURL string
	// Path overrides the venue's default pair list path.
	Path string
	// FocusToken keeps only pairs containing this symbol. Empty keeps all.
	FocusToken        string
	RequestsPerMinute int
	Timeout           time.Duration
	Breaker           *circuitbreaker.Config
}

// Adapter fetches and parses a pair list endpoint.
type Adapter struct {
	spec   VenueSpec
	venue  domain.Venue
	path   string
	focus  string
	client *httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[[]domain.Pair]
	logger logger.LoggerInterface
	tracer trace.Tracer
	now    func() time.Time
}

// New creates an adapter for spec.
func New(spec VenueSpec, cfg Config, log logger.LoggerInterface) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContextf("%s base url is empty", spec.ID))
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	path := cfg.Path
	if path == "" {
		path = spec.DefaultPath
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.New(
		httpclient.WithProviderName(string(spec.ID)),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithLimiter(ratelimit.New(cfg.RequestsPerMinute)),
		httpclient.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s http client: %w", spec.ID, err)
	}

	a := &Adapter{
		spec:   spec,
		venue:  domain.Venue{ID: spec.ID, Kind: domain.KindPairPrice, BaseURL: cfg.BaseURL},
		path:   path,
		focus:  cfg.FocusToken,
		client: client,
		logger: log,
		tracer: tracer,
		now:    time.Now,
	}

	bcfg := circuitbreaker.DefaultConfig("venue:" + string(spec.ID))
	if cfg.Breaker != nil {
		bcfg = *cfg.Breaker
	}
	bcfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	bcfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn(context.Background(), "venue circuit breaker state changed",
			"venue", string(spec.ID), "from", from.String(), "to", to.String())
	}
	a.cb = circuitbreaker.New[[]domain.Pair](bcfg)

	return a, nil
}

// Venue returns the venue served by this adapter.
func (a *Adapter) Venue() domain.Venue {
	return a.venue
}

// FetchPairs returns the venue's pairs, filtered to the focus token. Failures
// yield an empty slice and a classified error.
func (a *Adapter) FetchPairs(ctx context.Context) ([]domain.Pair, error) {
	ctx, span := a.tracer.Start(ctx, "pairapi.fetch_pairs",
		trace.WithAttributes(attribute.String("venue", string(a.spec.ID))),
	)
	defer span.End()

	pairs, err := a.cb.Execute(func() ([]domain.Pair, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		if code := apperror.GetCode(err); code == apperror.CodeCircuitOpen || code == apperror.CodeCircuitHalfOpen {
			err = apperror.New(apperror.CodeVenueUnavailable, apperror.WithContext(string(a.spec.ID)), apperror.WithCause(err))
		}
		return []domain.Pair{}, err
	}

	span.SetAttributes(attribute.Int("pairs", len(pairs)))
	return pairs, nil
}

func (a *Adapter) fetch(ctx context.Context) ([]domain.Pair, error) {
	resp, err := a.client.Get(ctx, a.path, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeVenueUnavailable,
			apperror.WithContext(string(a.spec.ID)),
			apperror.WithCause(err))
	}
	if !resp.IsSuccess() {
		return nil, apperror.New(apperror.CodeVenueUnavailable,
			apperror.WithContextf("%s: HTTP %d", a.spec.ID, resp.StatusCode))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body, &items); err != nil || items == nil {
		return nil, apperror.New(apperror.CodeMalformedResponse,
			apperror.WithContextf("%s: expected a JSON array of pairs", a.spec.ID),
			apperror.WithCause(err))
	}

	fetchedAt := a.now()
	pairs := make([]domain.Pair, 0, len(items))
	skipped := 0
	for _, raw := range items {
		p, err := a.spec.Decode(raw)
		if err != nil {
			skipped++
			continue
		}
		if a.focus != "" && !p.Contains(a.focus) {
			continue
		}
		p.Venue = a.venue
		p.FetchedAt = fetchedAt
		pairs = append(pairs, p)
	}

	if skipped > 0 {
		a.logger.Debug(ctx, "skipped malformed pairs", "venue", string(a.spec.ID), "skipped", skipped, "total", len(items))
	}
	return pairs, nil
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}

func errInvalid(field, value string) error {
	return fmt.Errorf("invalid %s %q", field, value)
}
