package infra

import (
	"context"
	"errors"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	scannerApp "github.com/fd1az/dex-scanner/business/scanner/app"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
)

// MultiReporter fans out to several reporters. A failing reporter never stops
// the others; their errors are joined.
type MultiReporter struct {
	reporters []scannerApp.Reporter
}

// NewMultiReporter creates a MultiReporter.
func NewMultiReporter(reporters ...scannerApp.Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

// Len returns the number of reporters.
func (m *MultiReporter) Len() int {
	return len(m.reporters)
}

func (m *MultiReporter) each(fn func(scannerApp.Reporter) error) error {
	var errs []error
	for _, r := range m.reporters {
		if err := fn(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiReporter) Start(ctx context.Context) error {
	return m.each(func(r scannerApp.Reporter) error { return r.Start(ctx) })
}

func (m *MultiReporter) ReportOpportunity(ctx context.Context, opp domain.Opportunity) error {
	return m.each(func(r scannerApp.Reporter) error { return r.ReportOpportunity(ctx, opp) })
}

func (m *MultiReporter) ReportResult(ctx context.Context, opp domain.Opportunity, res executionDomain.TransactionResult) error {
	return m.each(func(r scannerApp.Reporter) error { return r.ReportResult(ctx, opp, res) })
}

func (m *MultiReporter) ReportCycle(ctx context.Context, report domain.CycleReport) error {
	return m.each(func(r scannerApp.Reporter) error { return r.ReportCycle(ctx, report) })
}

func (m *MultiReporter) Stop() error {
	return m.each(func(r scannerApp.Reporter) error { return r.Stop() })
}
