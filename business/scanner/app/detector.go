package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// Rejection reasons recorded in pair outcomes.
const (
	ReasonIlliquid       = "below liquidity floor"
	ReasonNoBookData     = "not enough book data"
	ReasonNotCrossed     = "book not crossed"
	ReasonFirstSample    = "first observation"
	ReasonZeroAverage    = "zero average"
	ReasonBelowThreshold = "change below threshold"
	ReasonNoBuySignal    = "no buy signal"
)

// Detector turns pairs into opportunities. It owns the price history, so a
// single goroutine must drive it.
type Detector struct {
	thresholds  domain.Thresholds
	tradeAmount decimal.Decimal
	history     *signalDomain.PriceHistory
	analyzer    Analyzer
	logger      logger.LoggerInterface
	now         func() time.Time
}

// NewDetector creates a Detector.
func NewDetector(
	thresholds domain.Thresholds,
	tradeAmount decimal.Decimal,
	history *signalDomain.PriceHistory,
	analyzer Analyzer,
	log logger.LoggerInterface,
) *Detector {
	return &Detector{
		thresholds:  thresholds,
		tradeAmount: tradeAmount,
		history:     history,
		analyzer:    analyzer,
		logger:      log,
		now:         time.Now,
	}
}

// candidate is a pair a trigger fired on.
type candidate struct {
	trigger   domain.Trigger
	price     decimal.Decimal
	reference decimal.Decimal
	change    decimal.Decimal
}

// Detect evaluates one pair. The returned opportunity is set only when the
// outcome state is confirmed.
func (d *Detector) Detect(ctx context.Context, pair marketDomain.Pair) (*domain.Opportunity, domain.PairOutcome) {
	outcome := domain.PairOutcome{
		Pair:  pair.Key(),
		Venue: pair.Venue.ID,
		Price: pair.Price,
		State: domain.StateObserved,
	}

	if !IsLiquid(pair, d.thresholds) {
		d.logger.Debug(ctx, "pair filtered",
			"venue", pair.Venue.String(),
			"pair", pair.Key(),
			"liquidity", pair.Liquidity.String())
		outcome.State = domain.StateFiltered
		outcome.Reason = ReasonIlliquid
		return nil, outcome
	}

	var (
		c      candidate
		reason string
		ok     bool
	)
	switch pair.Venue.Kind {
	case marketDomain.KindOrderBook:
		c, reason, ok = d.crossedBook(pair)
	default:
		c, reason, ok = d.priceChange(pair)
	}
	if !ok {
		if reason == ReasonNoBookData {
			d.logger.Debug(ctx, "not enough book data", "venue", pair.Venue.String(), "pair", pair.Key())
		}
		outcome.Reason = reason
		return nil, outcome
	}

	d.logger.Info(ctx, "candidate detected",
		"venue", pair.Venue.String(),
		"pair", pair.Key(),
		"trigger", string(c.trigger),
		"price", c.price.String(),
		"reference", c.reference.String(),
		"change", c.change.StringFixed(4))

	sig, err := d.analyzer.Evaluate(ctx, pair)
	if err != nil {
		d.logger.Warn(ctx, "candidate rejected",
			"venue", pair.Venue.String(),
			"pair", pair.Key(),
			"code", string(apperror.GetCode(err)),
			"error", err)
		outcome.State = domain.StateRejected
		outcome.Reason = string(apperror.GetCode(err))
		return nil, outcome
	}
	if !sig.IsBuy() {
		d.logger.Info(ctx, "candidate rejected",
			"venue", pair.Venue.String(),
			"pair", pair.Key(),
			"rsi", sig.RSI.StringFixed(2))
		outcome.State = domain.StateRejected
		outcome.Reason = ReasonNoBuySignal
		return nil, outcome
	}

	outcome.State = domain.StateConfirmed
	return &domain.Opportunity{
		Venue:      pair.Venue,
		Pair:       pair,
		Trigger:    c.trigger,
		Price:      c.price,
		Amount:     d.tradeAmount,
		Reference:  c.reference,
		Change:     c.change,
		Action:     domain.ActionBuy,
		Signal:     sig,
		DetectedAt: d.now(),
	}, outcome
}

// crossedBook fires when the best bid is above the best ask; the buy price is
// the best ask and the change is the negated spread in basis points, as a
// fraction of the bid.
func (d *Detector) crossedBook(pair marketDomain.Pair) (candidate, string, bool) {
	spread, ok := pair.Book.Spread()
	if !ok {
		return candidate{}, ReasonNoBookData, false
	}
	if !pair.Book.Crossed() {
		return candidate{}, ReasonNotCrossed, false
	}
	return candidate{
		trigger:   domain.TriggerCrossedBook,
		price:     spread.Ask,
		reference: spread.Bid,
		change:    spread.BasisPoints.Neg().Shift(-4),
	}, "", true
}

// priceChange compares the price with the average of earlier observations and
// then records it.
func (d *Detector) priceChange(pair marketDomain.Pair) (candidate, string, bool) {
	previous, seen := d.history.Observe(historyKey(pair), pair.Price)
	if !seen {
		return candidate{}, ReasonFirstSample, false
	}
	if previous.IsZero() {
		return candidate{}, ReasonZeroAverage, false
	}

	change := pair.Price.Sub(previous).Abs().Div(previous)
	if change.LessThan(d.thresholds.PriceChangeFraction) {
		return candidate{}, ReasonBelowThreshold, false
	}
	return candidate{
		trigger:   domain.TriggerPriceChange,
		price:     pair.Price,
		reference: previous,
		change:    change,
	}, "", true
}

// historyKey scopes the rolling average to one venue's pair. It is
// venue-qualified on purpose and so differs from Pair.Key, which joins the same
// base and quote across venues.
func historyKey(pair marketDomain.Pair) string {
	return pair.String()
}
