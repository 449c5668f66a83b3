package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// mockAnalyzer implements Analyzer for testing.
type mockAnalyzer struct {
	rsi   decimal.Decimal
	err   error
	calls int
}

func (m *mockAnalyzer) Evaluate(ctx context.Context, pair marketDomain.Pair) (signalDomain.Signal, error) {
	m.calls++
	if m.err != nil {
		return signalDomain.Signal{}, m.err
	}
	sig := signalDomain.Signal{Symbol: pair.Base, RSI: m.rsi, Verdict: signalDomain.VerdictNone}
	if m.rsi.LessThan(decimal.NewFromInt(30)) {
		sig.Verdict = signalDomain.VerdictBuy
	}
	return sig, nil
}

var (
	orca  = marketDomain.Venue{ID: marketDomain.VenueOrca, Kind: marketDomain.KindPairPrice}
	serum = marketDomain.Venue{ID: marketDomain.VenueSerum, Kind: marketDomain.KindOrderBook}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pricePair(price, liquidity string) marketDomain.Pair {
	return marketDomain.Pair{Base: "SOL", Quote: "USDC", Venue: orca, Price: dec(price), Liquidity: dec(liquidity)}
}

func bookPair(bid, ask string) marketDomain.Pair {
	var bids, asks []marketDomain.Level
	if bid != "" {
		bids = []marketDomain.Level{{Price: dec(bid), Size: dec("5000")}}
	}
	if ask != "" {
		asks = []marketDomain.Level{{Price: dec(ask), Size: dec("5000")}}
	}
	book := marketDomain.NewOrderbook("mkt", bids, asks)
	return marketDomain.Pair{Base: "SOL", Quote: "USDC", Venue: serum, Book: book, Liquidity: book.Liquidity(5)}
}

func newDetector(a Analyzer) *Detector {
	return NewDetector(domain.DefaultThresholds(), decimal.NewFromInt(1), signalDomain.NewPriceHistory(10), a, logger.Discard())
}

func TestIsLiquid(t *testing.T) {
	tests := []struct {
		name      string
		liquidity string
		want      bool
	}{
		{name: "above", liquidity: "250000", want: true},
		{name: "exactly at floor", liquidity: "1000", want: true},
		{name: "below", liquidity: "999.99", want: false},
		{name: "zero", liquidity: "0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLiquid(pricePair("1", tt.liquidity), domain.DefaultThresholds()); got != tt.want {
				t.Errorf("IsLiquid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterLiquid(t *testing.T) {
	pairs := []marketDomain.Pair{pricePair("1", "5000"), pricePair("1", "10"), pricePair("1", "1000")}
	liquid, illiquid := FilterLiquid(pairs, domain.DefaultThresholds())
	if len(liquid) != 2 || len(illiquid) != 1 {
		t.Errorf("liquid = %d, illiquid = %d, want 2 and 1", len(liquid), len(illiquid))
	}
}

func TestDetector_PriceChange(t *testing.T) {
	tests := []struct {
		name      string
		history   []string
		price     string
		rsi       string
		wantState domain.PairState
		wantCalls int
	}{
		{name: "first observation", price: "100", rsi: "10", wantState: domain.StateObserved},
		{name: "below threshold", history: []string{"100"}, price: "104.99", rsi: "10", wantState: domain.StateObserved},
		{name: "exactly five percent up buys", history: []string{"100", "100"}, price: "105", rsi: "10", wantState: domain.StateConfirmed, wantCalls: 1},
		{name: "five percent down buys", history: []string{"100"}, price: "95", rsi: "10", wantState: domain.StateConfirmed, wantCalls: 1},
		{name: "rsi at 30 rejects", history: []string{"100"}, price: "110", rsi: "30", wantState: domain.StateRejected, wantCalls: 1},
		{name: "zero average", history: []string{"0"}, price: "1", rsi: "10", wantState: domain.StateObserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAnalyzer{rsi: dec(tt.rsi)}
			d := newDetector(a)
			for _, h := range tt.history {
				d.history.Observe(historyKey(pricePair(h, "5000")), dec(h))
			}

			opp, outcome := d.Detect(context.Background(), pricePair(tt.price, "5000"))
			if outcome.State != tt.wantState {
				t.Errorf("state = %s (%s), want %s", outcome.State, outcome.Reason, tt.wantState)
			}
			if (opp != nil) != (tt.wantState == domain.StateConfirmed) {
				t.Errorf("opportunity = %v, want set only when confirmed", opp)
			}
			if a.calls != tt.wantCalls {
				t.Errorf("analyzer calls = %d, want %d", a.calls, tt.wantCalls)
			}
		})
	}
}

func TestDetector_PushesAfterComparison(t *testing.T) {
	a := &mockAnalyzer{rsi: dec("50")}
	d := newDetector(a)

	d.Detect(context.Background(), pricePair("100", "5000"))
	d.Detect(context.Background(), pricePair("100", "5000"))

	// Compared with the average of 100 and 100; 105 itself is not yet included.
	_, outcome := d.Detect(context.Background(), pricePair("105", "5000"))
	if a.calls != 1 {
		t.Fatalf("analyzer calls = %d, want 1 (outcome %+v)", a.calls, outcome)
	}
	if outcome.State != domain.StateRejected {
		t.Errorf("state = %s, want rejected", outcome.State)
	}
}

func TestDetector_HistoryIsPerVenue(t *testing.T) {
	a := &mockAnalyzer{rsi: dec("10")}
	d := newDetector(a)
	raydium := pricePair("100", "5000")
	raydium.Venue = marketDomain.Venue{ID: marketDomain.VenueRaydium, Kind: marketDomain.KindPairPrice}

	d.Detect(context.Background(), pricePair("100", "5000"))
	if historyKey(raydium) == historyKey(pricePair("100", "5000")) || raydium.Key() != pricePair("100", "5000").Key() {
		t.Fatalf("history key must be venue-qualified while Pair.Key is shared")
	}

	// The first raydium observation is not compared with the orca average.
	raydium.Price = dec("200")
	_, outcome := d.Detect(context.Background(), raydium)
	if outcome.Reason != ReasonFirstSample {
		t.Errorf("outcome = %+v, want %q", outcome, ReasonFirstSample)
	}
	if a.calls != 0 {
		t.Errorf("analyzer calls = %d, want 0", a.calls)
	}
}

func TestDetector_CrossedBook(t *testing.T) {
	tests := []struct {
		name      string
		pair      marketDomain.Pair
		wantState  domain.PairState
		wantPrice  string
		wantChange decimal.Decimal
	}{
		{name: "crossed", pair: bookPair("101", "100"), wantState: domain.StateConfirmed, wantPrice: "100", wantChange: dec("1").Div(dec("101"))},
		{name: "deeply crossed", pair: bookPair("110", "100"), wantState: domain.StateConfirmed, wantPrice: "100", wantChange: dec("10").Div(dec("110"))},
		{name: "normal spread", pair: bookPair("99", "100"), wantState: domain.StateObserved},
		{name: "locked book", pair: bookPair("100", "100"), wantState: domain.StateObserved},
		{name: "missing asks", pair: bookPair("100", ""), wantState: domain.StateFiltered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDetector(&mockAnalyzer{rsi: dec("10")})
			opp, outcome := d.Detect(context.Background(), tt.pair)
			if outcome.State != tt.wantState {
				t.Fatalf("state = %s (%s), want %s", outcome.State, outcome.Reason, tt.wantState)
			}
			if opp != nil {
				if opp.Trigger != domain.TriggerCrossedBook || !opp.Price.Equal(dec(tt.wantPrice)) {
					t.Errorf("opportunity = %+v", opp)
				}
				if opp.Action != domain.ActionBuy || !opp.Amount.Equal(decimal.NewFromInt(1)) {
					t.Errorf("action = %s amount = %s", opp.Action, opp.Amount)
				}
				if !opp.Change.Equal(tt.wantChange) {
					t.Errorf("change = %s, want %s", opp.Change, tt.wantChange)
				}
				if !opp.Reference.Equal(tt.pair.Book.Bids[0].Price) {
					t.Errorf("reference = %s, want best bid", opp.Reference)
				}
			}
		})
	}
}

func TestDetector_NoBookDataWhenLiquidityForced(t *testing.T) {
	pair := bookPair("100", "")
	pair.Liquidity = dec("5000")

	d := newDetector(&mockAnalyzer{rsi: dec("10")})
	_, outcome := d.Detect(context.Background(), pair)
	if outcome.State != domain.StateObserved || outcome.Reason != ReasonNoBookData {
		t.Errorf("outcome = %+v, want observed with %q", outcome, ReasonNoBookData)
	}
}

func TestDetector_AnalyzerErrorRejects(t *testing.T) {
	a := &mockAnalyzer{err: apperror.New(apperror.CodeInsufficientData)}
	d := newDetector(a)

	_, outcome := d.Detect(context.Background(), bookPair("101", "100"))
	if outcome.State != domain.StateRejected {
		t.Fatalf("state = %s, want rejected", outcome.State)
	}
	if outcome.Reason != string(apperror.CodeInsufficientData) {
		t.Errorf("reason = %q", outcome.Reason)
	}
}
