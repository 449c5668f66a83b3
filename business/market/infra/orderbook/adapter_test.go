package orderbook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

const solBook = `{
	"market": "mkt-sol",
	"base": "sol",
	"quote": "usdc",
	"bids": [[147.9, 300], [148.0, 200], [147.5, 100]],
	"asks": [["148.2", "250"], [148.1, 50], [149, 1000]]
}`

func booksServer(t *testing.T, books map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		market := strings.TrimPrefix(r.URL.Path, "/orderbook/")
		body, ok := books[market]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(t *testing.T, baseURL string, markets ...string) *Adapter {
	t.Helper()
	a, err := New(Config{BaseURL: baseURL, Markets: markets}, &mockLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestAdapter_FetchLiquidity(t *testing.T) {
	srv := booksServer(t, map[string]string{"mkt-sol": solBook})
	a := newAdapter(t, srv.URL, "mkt-sol")

	book, err := a.FetchLiquidity(context.Background(), "mkt-sol")
	if err != nil {
		t.Fatalf("FetchLiquidity() error = %v", err)
	}

	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	if !bid.Price.Equal(decimal.RequireFromString("148")) {
		t.Errorf("best bid = %s, want 148", bid.Price)
	}
	if !ask.Price.Equal(decimal.RequireFromString("148.1")) {
		t.Errorf("best ask = %s, want 148.1", ask.Price)
	}
	if book.Crossed() {
		t.Error("book should not be crossed")
	}
}

func TestAdapter_FetchPairs(t *testing.T) {
	srv := booksServer(t, map[string]string{"mkt-sol": solBook})
	a := newAdapter(t, srv.URL, "mkt-sol")

	pairs, err := a.FetchPairs(context.Background())
	if err != nil {
		t.Fatalf("FetchPairs() error = %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("len(pairs) = %d, want 1", len(pairs))
	}

	p := pairs[0]
	if p.Key() != "SOL-USDC" {
		t.Errorf("Key() = %q, want SOL-USDC", p.Key())
	}
	if p.Venue.Kind != domain.KindOrderBook {
		t.Errorf("Kind = %q, want %q", p.Venue.Kind, domain.KindOrderBook)
	}
	// bids: 600, asks: 1300; liquidity is the thinner side.
	if !p.Liquidity.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Liquidity = %s, want 600", p.Liquidity)
	}
	if !p.Price.Equal(decimal.RequireFromString("148.1")) {
		t.Errorf("Price = %s, want 148.1", p.Price)
	}
	if p.Book == nil {
		t.Error("Book should be set")
	}
}

func TestAdapter_FetchPairs_PartialFailure(t *testing.T) {
	srv := booksServer(t, map[string]string{"mkt-sol": solBook})
	a := newAdapter(t, srv.URL, "mkt-sol", "mkt-missing")

	pairs, err := a.FetchPairs(context.Background())
	if err != nil {
		t.Fatalf("FetchPairs() error = %v, want nil when some markets succeed", err)
	}
	if len(pairs) != 1 {
		t.Errorf("len(pairs) = %d, want 1", len(pairs))
	}
}

func TestAdapter_FetchPairs_Errors(t *testing.T) {
	tests := []struct {
		name     string
		books    map[string]string
		wantCode apperror.Code
	}{
		{
			name:     "server error",
			books:    map[string]string{},
			wantCode: apperror.CodeVenueUnavailable,
		},
		{
			name:     "invalid json",
			books:    map[string]string{"m": `{"bids": "nope"`},
			wantCode: apperror.CodeMalformedResponse,
		},
		{
			name:     "short level",
			books:    map[string]string{"m": `{"base":"SOL","quote":"USDC","bids":[[1]],"asks":[]}`},
			wantCode: apperror.CodeMalformedResponse,
		},
		{
			name:     "missing symbols",
			books:    map[string]string{"m": `{"bids":[],"asks":[]}`},
			wantCode: apperror.CodeMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := booksServer(t, tt.books)
			a := newAdapter(t, srv.URL, "m")

			pairs, err := a.FetchPairs(context.Background())
			if err == nil {
				t.Fatal("FetchPairs() error = nil, want error")
			}
			if !apperror.HasCode(err, tt.wantCode) {
				t.Errorf("error code = %s, want %s (err: %v)", apperror.GetCode(err), tt.wantCode, err)
			}
			if pairs == nil || len(pairs) != 0 {
				t.Errorf("pairs = %v, want empty non-nil slice", pairs)
			}
		})
	}
}

func TestAdapter_FetchPairs_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(solBook))
	}))
	t.Cleanup(srv.Close)

	markets := make([]string, 12)
	for i := range markets {
		markets[i] = "m" + string(rune('a'+i))
	}
	a, err := New(Config{BaseURL: srv.URL, Markets: markets, Concurrency: 3}, &mockLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	pairs, err := a.FetchPairs(context.Background())
	if err != nil {
		t.Fatalf("FetchPairs() error = %v", err)
	}
	if len(pairs) != len(markets) {
		t.Errorf("len(pairs) = %d, want %d", len(pairs), len(markets))
	}
	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}
