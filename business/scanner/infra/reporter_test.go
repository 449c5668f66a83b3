package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

func testOpportunity() domain.Opportunity {
	venue := marketDomain.Venue{ID: marketDomain.VenueOrca, Kind: marketDomain.KindPairPrice}
	return domain.Opportunity{
		Venue: venue,
		Pair: marketDomain.Pair{
			Base:      "SOL",
			Quote:     "USDC",
			Venue:     venue,
			Address:   "pool-1",
			Liquidity: decimal.NewFromInt(50000),
			Price:     decimal.NewFromInt(105),
		},
		Trigger:    domain.TriggerPriceChange,
		Price:      decimal.NewFromInt(105),
		Amount:     decimal.NewFromInt(1),
		Reference:  decimal.NewFromInt(100),
		Change:     decimal.RequireFromString("0.05"),
		Action:     domain.ActionBuy,
		Signal:     signalDomain.Signal{Symbol: "SOL", RSI: decimal.NewFromInt(25), WMA: decimal.NewFromInt(101), Verdict: signalDomain.VerdictBuy},
		DetectedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func testReport() domain.CycleReport {
	return domain.CycleReport{
		Cycle:     7,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Venues: []domain.VenueOutcome{
			{Venue: marketDomain.VenueOrca, Pairs: 2},
			{Venue: marketDomain.VenueSerum, Err: errors.New("down")},
		},
		Outcomes: []domain.PairOutcome{
			{Pair: "SOL-USDC", Venue: marketDomain.VenueOrca, State: domain.StateConfirmed},
			{Pair: "RAY-USDC", Venue: marketDomain.VenueOrca, State: domain.StateFiltered},
		},
		Opportunities: []domain.Opportunity{testOpportunity()},
	}
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf)
	ctx := context.Background()

	if err := r.ReportOpportunity(ctx, testOpportunity()); err != nil {
		t.Fatalf("ReportOpportunity() error = %v", err)
	}
	if err := r.ReportCycle(ctx, testReport()); err != nil {
		t.Fatalf("ReportCycle() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"OPPORTUNITY DETECTED", "SOL-USDC", "price_change", "5.00%", "cycle #7", "serum down", "1 filtered"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

type fakePublisher struct {
	channel  string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	if b, ok := message.([]byte); ok {
		f.messages = append(f.messages, b)
	}
	return redis.NewIntResult(1, f.err)
}

func TestRedisReporter(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRedisReporter(pub, "", logger.Discard())
	ctx := context.Background()

	if err := r.ReportOpportunity(ctx, testOpportunity()); err != nil {
		t.Fatalf("ReportOpportunity() error = %v", err)
	}
	if err := r.ReportCycle(ctx, testReport()); err != nil {
		t.Fatalf("ReportCycle() error = %v", err)
	}
	if pub.channel != DefaultRedisChannel {
		t.Errorf("channel = %q, want %q", pub.channel, DefaultRedisChannel)
	}
	if len(pub.messages) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.messages))
	}

	var ev Event
	if err := json.Unmarshal(pub.messages[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventOpportunity || ev.Opportunity == nil {
		t.Fatalf("event = %+v, want opportunity", ev)
	}
	if ev.Opportunity.Pair != "SOL-USDC" || ev.Opportunity.Venue != "orca" {
		t.Errorf("payload = %+v", ev.Opportunity)
	}
	if !ev.Opportunity.Price.Equal(decimal.NewFromInt(105)) {
		t.Errorf("price = %s, want 105", ev.Opportunity.Price)
	}

	var cycle Event
	if err := json.Unmarshal(pub.messages[1], &cycle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cycle.Cycle == nil || cycle.Cycle.Cycle != 7 || cycle.Cycle.Filtered != 1 {
		t.Errorf("cycle payload = %+v", cycle.Cycle)
	}
	if len(cycle.Cycle.FailedVenues) != 1 || cycle.Cycle.FailedVenues[0] != "serum" {
		t.Errorf("failed venues = %v, want [serum]", cycle.Cycle.FailedVenues)
	}
}

func TestRedisReporter_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	r := NewRedisReporter(pub, "events", logger.Discard())

	err := r.ReportOpportunity(context.Background(), testOpportunity())
	if !apperror.HasCode(err, apperror.CodeReportFailed) {
		t.Fatalf("error = %v, want REPORT_FAILED", err)
	}
	if pub.channel != "events" {
		t.Errorf("channel = %q, want events", pub.channel)
	}
}

type fakeSender struct {
	texts []string
	err   error
}

func (f *fakeSender) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if msg, ok := c.(tgbot.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbot.Message{}, f.err
}

func TestTelegramReporter(t *testing.T) {
	sender := &fakeSender{}
	r := NewTelegramReporterWithSender(sender, 42)
	ctx := context.Background()

	if err := r.ReportOpportunity(ctx, testOpportunity()); err != nil {
		t.Fatalf("ReportOpportunity() error = %v", err)
	}
	if err := r.ReportCycle(ctx, testReport()); err != nil {
		t.Fatalf("ReportCycle() error = %v", err)
	}
	res := executionDomain.TransactionResult{Venue: "orca", Signature: "sig-1", Confirmed: true}
	if err := r.ReportResult(ctx, testOpportunity(), res); err != nil {
		t.Fatalf("ReportResult() error = %v", err)
	}

	if len(sender.texts) != 2 {
		t.Fatalf("sent %d messages, want 2 (cycles are not sent)", len(sender.texts))
	}
	if !strings.Contains(sender.texts[0], "BUY SOL-USDC on orca") {
		t.Errorf("opportunity text = %q", sender.texts[0])
	}
	if !strings.Contains(sender.texts[1], "sig-1") {
		t.Errorf("result text = %q", sender.texts[1])
	}
}

func TestTelegramReporter_SendError(t *testing.T) {
	r := NewTelegramReporterWithSender(&fakeSender{err: errors.New("blocked")}, 42)
	if err := r.Stop(); !apperror.HasCode(err, apperror.CodeReportFailed) {
		t.Fatalf("Stop() error = %v, want REPORT_FAILED", err)
	}
}

type countingReporter struct {
	opportunities int
	err           error
}

func (c *countingReporter) Start(ctx context.Context) error { return c.err }
func (c *countingReporter) ReportOpportunity(ctx context.Context, opp domain.Opportunity) error {
	c.opportunities++
	return c.err
}
func (c *countingReporter) ReportResult(ctx context.Context, opp domain.Opportunity, res executionDomain.TransactionResult) error {
	return c.err
}
func (c *countingReporter) ReportCycle(ctx context.Context, report domain.CycleReport) error {
	return c.err
}
func (c *countingReporter) Stop() error { return c.err }

func TestMultiReporter_ContinuesPastFailures(t *testing.T) {
	failing := &countingReporter{err: errors.New("boom")}
	ok := &countingReporter{}
	m := NewMultiReporter(failing, ok)

	err := m.ReportOpportunity(context.Background(), testOpportunity())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error = %v, want joined boom", err)
	}
	if failing.opportunities != 1 || ok.opportunities != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", failing.opportunities, ok.opportunities)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}
