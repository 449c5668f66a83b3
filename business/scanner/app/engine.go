package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	executionApp "github.com/fd1az/dex-scanner/business/execution/app"
	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const tracerName = "github.com/fd1az/dex-scanner/business/scanner/app"

// Engine runs one scan cycle: fetch, filter, detect, confirm, dispatch, report.
type Engine struct {
	market     MarketSource
	detector   *Detector
	dispatcher Dispatcher
	reporter   Reporter
	metrics    *Metrics
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	cycles     atomic.Uint64
	now        func() time.Time
}

// NewEngine creates an Engine. dispatcher may be nil, in which case
// opportunities are only reported.
func NewEngine(
	market MarketSource,
	detector *Detector,
	dispatcher Dispatcher,
	reporter Reporter,
	metrics *Metrics,
	log logger.LoggerInterface,
) *Engine {
	return &Engine{
		market:     market,
		detector:   detector,
		dispatcher: dispatcher,
		reporter:   reporter,
		metrics:    metrics,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// RunCycle performs one iteration over all venues. Venue failures are recorded
// in the report and never abort the cycle.
func (e *Engine) RunCycle(ctx context.Context) domain.CycleReport {
	report := domain.CycleReport{
		Cycle:     e.cycles.Add(1),
		StartedAt: e.now(),
	}

	ctx, span := e.tracer.Start(ctx, "scanner.cycle",
		trace.WithAttributes(attribute.Int64("cycle", int64(report.Cycle))),
	)
	defer span.End()

	snaps := e.market.Snapshot(ctx)

	// Detection is sequential: the detector owns the price history.
	for _, snap := range snaps {
		report.Venues = append(report.Venues, domain.VenueOutcome{
			Venue:    snap.Venue.ID,
			Pairs:    len(snap.Pairs),
			Err:      snap.Err,
			Duration: snap.Duration,
		})

		for _, pair := range snap.Pairs {
			opp, outcome := e.detector.Detect(ctx, pair)
			if opp != nil {
				outcome = e.handle(ctx, *opp, outcome, &report)
			}
			report.Outcomes = append(report.Outcomes, outcome)
		}
	}

	report.Duration = e.now().Sub(report.StartedAt)
	span.SetAttributes(
		attribute.Int("opportunities", len(report.Opportunities)),
		attribute.Int("failed_venues", len(report.FailedVenues())),
	)
	e.metrics.recordCycle(ctx, report)

	if e.reporter != nil {
		if err := e.reporter.ReportCycle(ctx, report); err != nil {
			e.reportFailed(ctx, "cycle", err)
		}
	}

	e.logger.Info(ctx, "scan cycle finished",
		"cycle", report.Cycle,
		"duration", report.Duration,
		"pairs", len(report.Outcomes),
		"filtered", report.Count(domain.StateFiltered),
		"opportunities", len(report.Opportunities),
		"failed_venues", len(report.FailedVenues()))
	return report
}

func (e *Engine) handle(ctx context.Context, opp domain.Opportunity, outcome domain.PairOutcome, report *domain.CycleReport) domain.PairOutcome {
	report.Opportunities = append(report.Opportunities, opp)
	if e.reporter != nil {
		if err := e.reporter.ReportOpportunity(ctx, opp); err != nil {
			e.reportFailed(ctx, "opportunity", err)
		}
	}

	if e.dispatcher == nil {
		return outcome
	}

	result, err := e.dispatcher.Dispatch(ctx, toOrder(opp))
	if err != nil {
		outcome.State = domain.StateFailed
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.State = domain.StateDispatched
	report.Results = append(report.Results, *result)
	if e.reporter != nil {
		if err := e.reporter.ReportResult(ctx, opp, *result); err != nil {
			e.reportFailed(ctx, "result", err)
		}
	}
	return outcome
}

func (e *Engine) reportFailed(ctx context.Context, what string, err error) {
	e.logger.Warn(ctx, "reporter failed",
		"what", what,
		"code", string(apperror.CodeReportFailed),
		"error", err)
}

func toOrder(opp domain.Opportunity) executionApp.Order {
	return executionApp.Order{
		Venue:  string(opp.Venue.ID),
		Market: opp.Pair.Address,
		Base:   opp.Pair.Base,
		Quote:  opp.Pair.Quote,
		Side:   executionDomain.SideBuy,
		Amount: opp.Amount,
		Price:  opp.Price,
	}
}
