// Package infra contains the reporter adapters of the scanner context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	"github.com/fd1az/dex-scanner/pkg/ui"
)

// ConsoleReporter prints styled opportunity banners and cycle summaries.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) print(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

// Start prints the startup banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.print(ui.TitleStyle.Render("DEX Scanner Started"))
	return nil
}

// ReportOpportunity prints an opportunity banner.
func (r *ConsoleReporter) ReportOpportunity(ctx context.Context, opp domain.Opportunity) error {
	rows := []string{
		ui.TitleStyle.Render("OPPORTUNITY DETECTED"),
		"",
		ui.Row("Detected", opp.DetectedAt.Format(time.RFC3339)),
		ui.Row("Venue", opp.Venue.String()),
		ui.Row("Pair", opp.Pair.Key()),
		ui.Row("Trigger", string(opp.Trigger)),
		ui.Row("Action", ui.BuyValue.Render(strings.ToUpper(string(opp.Action)))),
		ui.Row("Price", opp.Price.String()),
		ui.Row("Reference", opp.Reference.String()),
		ui.Row("Change", opp.Change.Shift(2).StringFixed(2)+"%"),
		ui.Row("Amount", opp.Amount.String()+" "+opp.Pair.Base),
		ui.Row("RSI", opp.Signal.RSI.StringFixed(2)),
		ui.Row("WMA", opp.Signal.WMA.StringFixed(6)),
		ui.Row("Liquidity", opp.Pair.Liquidity.StringFixed(2)),
	}
	r.print(ui.BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	return nil
}

// ReportResult prints a confirmed transaction.
func (r *ConsoleReporter) ReportResult(ctx context.Context, opp domain.Opportunity, res executionDomain.TransactionResult) error {
	r.print(fmt.Sprintf("%s %s %s confirmed after %d polls: %s",
		ui.VenueUp.Render("[TX]"),
		res.Venue,
		opp.Pair.Key(),
		res.Attempts,
		res.Signature))
	return nil
}

// ReportCycle prints a one-line cycle summary with per-venue status.
func (r *ConsoleReporter) ReportCycle(ctx context.Context, report domain.CycleReport) error {
	venues := make([]string, 0, len(report.Venues))
	for _, v := range report.Venues {
		if v.Err != nil {
			venues = append(venues, ui.VenueDown.Render(string(v.Venue)+" down"))
			continue
		}
		venues = append(venues, ui.VenueUp.Render(fmt.Sprintf("%s %d", v.Venue, v.Pairs)))
	}

	opps := fmt.Sprintf("%d opportunities", len(report.Opportunities))
	if len(report.Opportunities) > 0 {
		opps = ui.BuyValue.Render(opps)
	} else {
		opps = ui.MutedValue.Render(opps)
	}

	if n := report.Count(domain.StateFailed); n > 0 {
		opps += " " + ui.WarnValue.Render(fmt.Sprintf("(%d dispatch failed)", n))
	}

	r.print(fmt.Sprintf("[%s] cycle #%d %s | %s | %d filtered | %s",
		report.StartedAt.Format("15:04:05"),
		report.Cycle,
		ui.MutedValue.Render(report.Duration.Round(time.Millisecond).String()),
		strings.Join(venues, " "),
		report.Count(domain.StateFiltered),
		opps))
	return nil
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	r.print(ui.MutedValue.Render("DEX Scanner Stopped"))
	return nil
}
