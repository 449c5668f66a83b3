package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const tracerName = "github.com/fd1az/dex-scanner/business/signal/app"

// AnalyzerConfig holds the indicator settings.
type AnalyzerConfig struct {
	RSIPeriod    int
	WMAPeriod    int
	RSIBuyBelow  decimal.Decimal
	ShortHistory domain.ShortHistoryPolicy
}

// DefaultAnalyzerConfig returns RSI/WMA over 14 samples with a buy below 30.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		RSIPeriod:    14,
		WMAPeriod:    14,
		RSIBuyBelow:  decimal.NewFromInt(30),
		ShortHistory: domain.ShortHistoryPartial,
	}
}

// Analyzer confirms candidates against the base token's price history.
type Analyzer struct {
	source HistorySource
	cfg    AnalyzerConfig
	logger logger.LoggerInterface
	tracer trace.Tracer
	now    func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(source HistorySource, cfg AnalyzerConfig, log logger.LoggerInterface) *Analyzer {
	return &Analyzer{
		source: source,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// Evaluate computes RSI and WMA for the pair's base token. The verdict is buy
// when RSI is below the configured threshold; there is no sell verdict.
func (a *Analyzer) Evaluate(ctx context.Context, pair marketDomain.Pair) (domain.Signal, error) {
	ctx, span := a.tracer.Start(ctx, "signal.evaluate",
		trace.WithAttributes(
			attribute.String("pair", pair.String()),
			attribute.String("symbol", pair.Base),
		),
	)
	defer span.End()

	prices, err := a.source.PriceHistory(ctx, pair.Base)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		return domain.Signal{}, err
	}

	rsi, err := RSI(prices, a.cfg.RSIPeriod)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		return domain.Signal{}, err
	}
	wma, err := WMA(prices, a.cfg.WMAPeriod, a.cfg.ShortHistory)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		return domain.Signal{}, err
	}

	sig := domain.Signal{
		Symbol:  pair.Base,
		RSI:     rsi,
		WMA:     wma,
		Samples: len(prices),
		Verdict: domain.VerdictNone,
		At:      a.now(),
	}
	if rsi.LessThan(a.cfg.RSIBuyBelow) {
		sig.Verdict = domain.VerdictBuy
	}

	span.SetAttributes(
		attribute.String("rsi", rsi.StringFixed(2)),
		attribute.String("verdict", string(sig.Verdict)),
	)
	a.logger.Debug(ctx, "signal evaluated",
		"pair", pair.String(),
		"rsi", rsi.StringFixed(2),
		"wma", wma.StringFixed(6),
		"verdict", string(sig.Verdict))
	return sig, nil
}
