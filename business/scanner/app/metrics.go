package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/dex-scanner/business/scanner/domain"
)

const instrumentationName = "github.com/fd1az/dex-scanner/business/scanner"

// Metrics holds the scanner instruments.
type Metrics struct {
	cycles           metric.Int64Counter
	pairs            metric.Int64Counter
	candidates       metric.Int64Counter
	opportunities    metric.Int64Counter
	dispatchFailures metric.Int64Counter
	venueErrors      metric.Int64Counter
	cycleDuration    metric.Float64Histogram
}

// NewMetrics creates the instruments on mp, or the global provider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	var (
		m   Metrics
		err error
	)
	if m.cycles, err = meter.Int64Counter("scanner_cycles_total",
		metric.WithDescription("Completed scan cycles")); err != nil {
		return nil, err
	}
	if m.pairs, err = meter.Int64Counter("scanner_pairs_total",
		metric.WithDescription("Pairs seen by terminal state")); err != nil {
		return nil, err
	}
	if m.candidates, err = meter.Int64Counter("scanner_candidates_total",
		metric.WithDescription("Pairs a detection trigger fired on")); err != nil {
		return nil, err
	}
	if m.opportunities, err = meter.Int64Counter("scanner_opportunities_total",
		metric.WithDescription("Confirmed opportunities")); err != nil {
		return nil, err
	}
	if m.dispatchFailures, err = meter.Int64Counter("scanner_dispatch_failures_total",
		metric.WithDescription("Dispatches that failed")); err != nil {
		return nil, err
	}
	if m.venueErrors, err = meter.Int64Counter("scanner_venue_errors_total",
		metric.WithDescription("Venue fetches that failed")); err != nil {
		return nil, err
	}
	if m.cycleDuration, err = meter.Float64Histogram("scanner_cycle_duration_ms",
		metric.WithDescription("Scan cycle duration"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) recordCycle(ctx context.Context, r domain.CycleReport) {
	if m == nil {
		return
	}
	m.cycles.Add(ctx, 1)
	m.cycleDuration.Record(ctx, float64(r.Duration)/float64(time.Millisecond))

	for _, v := range r.Venues {
		if v.Err != nil {
			m.venueErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", string(v.Venue))))
		}
	}
	for _, o := range r.Outcomes {
		attrs := metric.WithAttributes(
			attribute.String("venue", string(o.Venue)),
			attribute.String("state", string(o.State)),
		)
		m.pairs.Add(ctx, 1, attrs)
		switch o.State {
		case domain.StateRejected, domain.StateConfirmed, domain.StateDispatched, domain.StateFailed:
			m.candidates.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", string(o.Venue))))
		}
		switch o.State {
		case domain.StateConfirmed, domain.StateDispatched, domain.StateFailed:
			m.opportunities.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", string(o.Venue))))
		}
		if o.State == domain.StateFailed {
			m.dispatchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", string(o.Venue))))
		}
	}
}
