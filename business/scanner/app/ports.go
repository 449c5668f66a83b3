// Package app contains the scan engine, scheduler and port definitions for
// the scanner context.
package app

import (
	"context"

	executionApp "github.com/fd1az/dex-scanner/business/execution/app"
	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	marketApp "github.com/fd1az/dex-scanner/business/market/app"
	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
)

// MarketSource produces one snapshot per venue per cycle.
type MarketSource interface {
	Snapshot(ctx context.Context) []marketApp.VenueSnapshot
}

// Analyzer confirms candidates with technical indicators.
type Analyzer interface {
	Evaluate(ctx context.Context, pair marketDomain.Pair) (signalDomain.Signal, error)
}

// Dispatcher executes confirmed opportunities.
type Dispatcher interface {
	Dispatch(ctx context.Context, order executionApp.Order) (*executionDomain.TransactionResult, error)
}

// Reporter publishes scanner output.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportOpportunity publishes a confirmed opportunity.
	ReportOpportunity(ctx context.Context, opp domain.Opportunity) error

	// ReportResult publishes a confirmed transaction.
	ReportResult(ctx context.Context, opp domain.Opportunity, result executionDomain.TransactionResult) error

	// ReportCycle publishes the summary of a finished cycle.
	ReportCycle(ctx context.Context, report domain.CycleReport) error

	// Stop gracefully shuts down the reporter.
	Stop() error
}
