// Package orderbook implements the order book venue adapter (Serum markets).
package orderbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-scanner/internal/httpclient"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

const (
	tracerName         = "github.com/fd1az/dex-scanner/business/market/infra/orderbook"
	defaultTimeout     = 10 * time.Second
	defaultPath        = "orderbook"
	defaultConcurrency = 5
)

// Config holds the order book venue settings.
type Config struct {
	ID      domain.VenueID
	BaseURL string
	Path    string
	// Markets are the market addresses to scan each cycle.
	Markets []string
	// Concurrency bounds parallel market fetches.
	Concurrency int
	// DepthLevels per side counted as liquidity.
	DepthLevels       int
	RequestsPerMinute int
	Timeout           time.Duration
	Breaker           *circuitbreaker.Config
}

// Adapter reads L2 books for a fixed set of markets.
type Adapter struct {
	cfg    Config
	venue  domain.Venue
	client *httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*domain.Orderbook]
	logger logger.LoggerInterface
	tracer trace.Tracer
	now    func() time.Time
}

// New creates the adapter.
func New(cfg Config, log logger.LoggerInterface) (*Adapter, error) {
	if cfg.ID == "" {
		cfg.ID = domain.VenueSerum
	}
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContextf("%s base url is empty", cfg.ID))
	}
	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.DepthLevels < 1 {
		cfg.DepthLevels = domain.DefaultDepthLevels
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.New(
		httpclient.WithProviderName(string(cfg.ID)),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithLimiter(ratelimit.New(cfg.RequestsPerMinute)),
		httpclient.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s http client: %w", cfg.ID, err)
	}

	bcfg := circuitbreaker.DefaultConfig("venue:" + string(cfg.ID))
	if cfg.Breaker != nil {
		bcfg = *cfg.Breaker
	}
	bcfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled) || apperror.HasCode(err, apperror.CodeMalformedResponse)
	}
	bcfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn(context.Background(), "venue circuit breaker state changed",
			"venue", string(cfg.ID), "from", from.String(), "to", to.String())
	}

	return &Adapter{
		cfg:    cfg,
		venue:  domain.Venue{ID: cfg.ID, Kind: domain.KindOrderBook, BaseURL: cfg.BaseURL},
		client: client,
		cb:     circuitbreaker.New[*domain.Orderbook](bcfg),
		logger: log,
		tracer: tracer,
		now:    time.Now,
	}, nil
}

// Venue returns the venue served by this adapter.
func (a *Adapter) Venue() domain.Venue {
	return a.venue
}

// bookResponse is the wire format of GET {path}/{market}.
type bookResponse struct {
	Market string              `json:"market"`
	Base   string              `json:"base"`
	Quote  string              `json:"quote"`
	Bids   [][]decimal.Decimal `json:"bids"`
	Asks   [][]decimal.Decimal `json:"asks"`
}

// marketBook keeps the symbols that came with a book.
type marketBook struct {
	book        *domain.Orderbook
	base, quote string
}

// FetchLiquidity loads the L2 book of one market.
func (a *Adapter) FetchLiquidity(ctx context.Context, address string) (*domain.Orderbook, error) {
	mb, err := a.fetchBook(ctx, address)
	if err != nil {
		return nil, err
	}
	return mb.book, nil
}

func (a *Adapter) fetchBook(ctx context.Context, address string) (marketBook, error) {
	ctx, span := a.tracer.Start(ctx, "orderbook.fetch_liquidity",
		trace.WithAttributes(
			attribute.String("venue", string(a.cfg.ID)),
			attribute.String("market", address),
		),
	)
	defer span.End()

	var symbols marketBook
	book, err := a.cb.Execute(func() (*domain.Orderbook, error) {
		resp, err := a.client.Get(ctx, a.cfg.Path+"/"+url.PathEscape(address), nil)
		if err != nil {
			return nil, apperror.New(apperror.CodeVenueUnavailable,
				apperror.WithContextf("%s market %s", a.cfg.ID, address),
				apperror.WithCause(err))
		}
		if !resp.IsSuccess() {
			return nil, apperror.New(apperror.CodeVenueUnavailable,
				apperror.WithContextf("%s market %s: HTTP %d", a.cfg.ID, address, resp.StatusCode))
		}

		var br bookResponse
		if err := json.Unmarshal(resp.Body, &br); err != nil {
			return nil, malformed(address, err)
		}
		book, err := toOrderbook(address, br)
		if err != nil {
			return nil, malformed(address, err)
		}
		symbols.base = strings.ToUpper(br.Base)
		symbols.quote = strings.ToUpper(br.Quote)
		return book, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		if code := apperror.GetCode(err); code == apperror.CodeCircuitOpen || code == apperror.CodeCircuitHalfOpen {
			err = apperror.New(apperror.CodeVenueUnavailable, apperror.WithContext(string(a.cfg.ID)), apperror.WithCause(err))
		}
		return marketBook{}, err
	}

	span.SetAttributes(attribute.Int("bids", len(book.Bids)), attribute.Int("asks", len(book.Asks)))
	symbols.book = book
	return symbols, nil
}

// FetchPairs loads every configured market with bounded parallelism. Markets
// that fail are logged and left out; the error is returned only when no
// market could be read.
func (a *Adapter) FetchPairs(ctx context.Context) ([]domain.Pair, error) {
	ctx, span := a.tracer.Start(ctx, "orderbook.fetch_pairs",
		trace.WithAttributes(
			attribute.String("venue", string(a.cfg.ID)),
			attribute.Int("markets", len(a.cfg.Markets)),
		),
	)
	defer span.End()

	results := make([]marketBook, len(a.cfg.Markets))
	errs := make([]error, len(a.cfg.Markets))

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, market := range a.cfg.Markets {
		g.Go(func() error {
			results[i], errs[i] = a.fetchBook(ctx, market)
			return nil
		})
	}
	_ = g.Wait()

	fetchedAt := a.now()
	pairs := make([]domain.Pair, 0, len(results))
	var firstErr error
	for i, mb := range results {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			a.logger.Warn(ctx, "market fetch failed",
				"venue", string(a.cfg.ID),
				"market", a.cfg.Markets[i],
				"code", string(apperror.GetCode(errs[i])),
				"error", errs[i])
			continue
		}
		pairs = append(pairs, a.toPair(a.cfg.Markets[i], mb, fetchedAt))
	}

	if len(pairs) == 0 && firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "all markets failed")
		return []domain.Pair{}, firstErr
	}
	return pairs, nil
}

func (a *Adapter) toPair(address string, mb marketBook, fetchedAt time.Time) domain.Pair {
	p := domain.Pair{
		Base:      mb.base,
		Quote:     mb.quote,
		Venue:     a.venue,
		Address:   address,
		Liquidity: mb.book.Liquidity(a.cfg.DepthLevels),
		Book:      mb.book,
		FetchedAt: fetchedAt,
	}
	if ask, ok := mb.book.BestAsk(); ok {
		p.Price = ask.Price
	}
	return p
}

func toOrderbook(address string, br bookResponse) (*domain.Orderbook, error) {
	if br.Base == "" || br.Quote == "" {
		return nil, fmt.Errorf("missing base/quote symbols")
	}
	bids, err := toLevels(br.Bids)
	if err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	asks, err := toLevels(br.Asks)
	if err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	market := br.Market
	if market == "" {
		market = address
	}
	return domain.NewOrderbook(market, bids, asks), nil
}

func toLevels(raw [][]decimal.Decimal) ([]domain.Level, error) {
	levels := make([]domain.Level, 0, len(raw))
	for i, l := range raw {
		if len(l) < 2 {
			return nil, fmt.Errorf("level %d: want [price, size]", i)
		}
		if !l[0].IsPositive() || l[1].IsNegative() {
			return nil, fmt.Errorf("level %d: invalid price %s / size %s", i, l[0], l[1])
		}
		levels = append(levels, domain.Level{Price: l[0], Size: l[1]})
	}
	return levels, nil
}

func malformed(address string, cause error) error {
	return apperror.New(apperror.CodeMalformedResponse,
		apperror.WithContextf("market %s", address),
		apperror.WithCause(cause))
}
