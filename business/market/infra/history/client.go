// Package history implements the historical price client (CoinGecko market chart).
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/httpclient"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/ratelimit"
)

const (
	tracerName        = "github.com/fd1az/dex-scanner/business/market/infra/history"
	apiKeyHeader      = "x-cg-demo-api-key"
	defaultVsCurrency = "usd"
	defaultTimeout    = 15 * time.Second
)

// Config holds the history API settings.
type Config struct {
	BaseURL           string
	VsCurrency        string
	APIKey            string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client loads close price series.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// New creates a history client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("history base url is empty"))
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = defaultVsCurrency
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers[apiKeyHeader] = cfg.APIKey
	}

	tracer := otel.Tracer(tracerName)
	hc, err := httpclient.New(
		httpclient.WithProviderName("history"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithHeaders(headers),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithLimiter(ratelimit.New(cfg.RequestsPerMinute)),
		httpclient.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("create history http client: %w", err)
	}

	return &Client{cfg: cfg, http: hc, logger: log, tracer: tracer}, nil
}

type marketChart struct {
	Prices [][]decimal.Decimal `json:"prices"`
}

// Prices returns the close prices of historyID over the last days, oldest first.
func (c *Client) Prices(ctx context.Context, historyID string, days int) ([]decimal.Decimal, error) {
	ctx, span := c.tracer.Start(ctx, "history.prices",
		trace.WithAttributes(
			attribute.String("history_id", historyID),
			attribute.Int("days", days),
		),
	)
	defer span.End()

	if days < 1 {
		days = 1
	}
	query := url.Values{}
	query.Set("vs_currency", c.cfg.VsCurrency)
	query.Set("days", strconv.Itoa(days))

	resp, err := c.http.Get(ctx, "coins/"+url.PathEscape(historyID)+"/market_chart", query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, apperror.New(apperror.CodeHistoryUnavailable, apperror.WithContext(historyID), apperror.WithCause(err))
	}
	if !resp.IsSuccess() {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, apperror.New(apperror.CodeHistoryUnavailable, apperror.WithContextf("%s: HTTP %d", historyID, resp.StatusCode))
	}

	var chart marketChart
	if err := json.Unmarshal(resp.Body, &chart); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeMalformedResponse, apperror.WithContext(historyID), apperror.WithCause(err))
	}

	points := make([][]decimal.Decimal, 0, len(chart.Prices))
	for i, p := range chart.Prices {
		if len(p) < 2 || !p[1].IsPositive() {
			return nil, apperror.New(apperror.CodeMalformedResponse, apperror.WithContextf("%s: point %d", historyID, i))
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i][0].LessThan(points[j][0]) })

	prices := make([]decimal.Decimal, len(points))
	for i, p := range points {
		prices[i] = p[1]
	}

	span.SetAttributes(attribute.Int("points", len(prices)))
	c.logger.Debug(ctx, "price history loaded", "id", historyID, "points", len(prices))
	return prices, nil
}
