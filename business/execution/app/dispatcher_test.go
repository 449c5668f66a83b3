package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/token"
)

// mockSigner implements Signer for testing.
type mockSigner struct {
	err     error
	calls   int
	intents []domain.TradeIntent
}

func (m *mockSigner) SignAndSend(ctx context.Context, intent domain.TradeIntent) (string, error) {
	m.calls++
	m.intents = append(m.intents, intent)
	if m.err != nil {
		return "", m.err
	}
	return "sig-1", nil
}

// mockConfirmer confirms after a number of polls.
type mockConfirmer struct {
	confirmAfter int
	err          error
	calls        int
}

func (m *mockConfirmer) Confirmed(ctx context.Context, signature string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.confirmAfter > 0 && m.calls >= m.confirmAfter, nil
}

// mockBalances implements BalanceProvider for testing.
type mockBalances struct {
	balance decimal.Decimal
	err     error
}

func (m *mockBalances) Balance(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return m.balance, m.err
}

func testConfig() DispatcherConfig {
	cfg := DefaultDispatcherConfig()
	cfg.ConfirmAttempts = 3
	cfg.ConfirmInterval = time.Millisecond
	return cfg
}

func solOrder(venue string) Order {
	return Order{
		Venue:  venue,
		Market: "mkt",
		Base:   "SOL",
		Quote:  "USDC",
		Side:   domain.SideBuy,
		Amount: decimal.NewFromInt(1),
		Price:  decimal.NewFromInt(150),
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	signer := &mockSigner{}
	confirmer := &mockConfirmer{confirmAfter: 2}
	d := NewDispatcher(testConfig(), signer, confirmer, nil, logger.Discard())

	res, err := d.Dispatch(context.Background(), solOrder("orca"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !res.Confirmed || res.Signature != "sig-1" || res.Attempts != 2 {
		t.Errorf("result = %+v", res)
	}

	intent := signer.intents[0]
	if intent.Route != domain.RouteSwap {
		t.Errorf("Route = %s, want swap", intent.Route)
	}
	if !intent.MinAmountOut.Equal(decimal.RequireFromString("148.5")) {
		t.Errorf("MinAmountOut = %s, want 148.5", intent.MinAmountOut)
	}
	if intent.ID == "" || intent.ID != res.IntentID {
		t.Errorf("intent id = %q, result id = %q", intent.ID, res.IntentID)
	}
}

func TestDispatcher_Routes(t *testing.T) {
	tests := []struct {
		venue string
		want  domain.Route
	}{
		{venue: "serum", want: domain.RouteLimitOrder},
		{venue: "raydium", want: domain.RouteSwap},
		{venue: "orca", want: domain.RouteSwap},
	}

	for _, tt := range tests {
		t.Run(tt.venue, func(t *testing.T) {
			signer := &mockSigner{}
			d := NewDispatcher(testConfig(), signer, &mockConfirmer{confirmAfter: 1}, nil, logger.Discard())
			if _, err := d.Dispatch(context.Background(), solOrder(tt.venue)); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if got := signer.intents[0].Route; got != tt.want {
				t.Errorf("Route = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDispatcher_Failures(t *testing.T) {
	tests := []struct {
		name      string
		order     Order
		signer    *mockSigner
		confirmer *mockConfirmer
		balances  BalanceProvider
		wantCode  apperror.Code
		wantSigns int
	}{
		{
			name:      "zero price",
			order:     func() Order { o := solOrder("orca"); o.Price = decimal.Zero; return o }(),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{confirmAfter: 1},
			wantCode:  apperror.CodeInvalidTradeSize,
		},
		{
			name:      "negative amount",
			order:     func() Order { o := solOrder("orca"); o.Amount = decimal.NewFromInt(-1); return o }(),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{confirmAfter: 1},
			wantCode:  apperror.CodeInvalidTradeSize,
		},
		{
			name:      "unknown venue",
			order:     solOrder("uniswap"),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{confirmAfter: 1},
			wantCode:  apperror.CodeUnknownVenue,
		},
		{
			name:      "signer failure is not retried",
			order:     solOrder("raydium"),
			signer:    &mockSigner{err: errors.New("relay down")},
			confirmer: &mockConfirmer{confirmAfter: 1},
			wantCode:  apperror.CodeSigningFailed,
			wantSigns: 1,
		},
		{
			name:      "never confirmed",
			order:     solOrder("serum"),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{},
			wantCode:  apperror.CodeNotConfirmed,
			wantSigns: 1,
		},
		{
			name:      "confirmer error",
			order:     solOrder("serum"),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{err: errors.New("rpc")},
			wantCode:  apperror.CodeNotConfirmed,
			wantSigns: 1,
		},
		{
			name:      "balance unavailable",
			order:     solOrder("orca"),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{confirmAfter: 1},
			balances:  &mockBalances{err: errors.New("rpc")},
			wantCode:  apperror.CodeBalanceUnavailable,
		},
		{
			name:      "empty wallet",
			order:     solOrder("orca"),
			signer:    &mockSigner{},
			confirmer: &mockConfirmer{confirmAfter: 1},
			balances:  &mockBalances{balance: decimal.Zero},
			wantCode:  apperror.CodeInvalidTradeSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(testConfig(), tt.signer, tt.confirmer, tt.balances, logger.Discard())

			_, err := d.Dispatch(context.Background(), tt.order)
			if !apperror.HasCode(err, apperror.CodeDispatchFailed) {
				t.Fatalf("Dispatch() error = %v, want DISPATCH_FAILED", err)
			}
			if !apperror.HasCode(err, tt.wantCode) {
				t.Errorf("Dispatch() error = %v, want cause %s", err, tt.wantCode)
			}
			if tt.signer.calls != tt.wantSigns {
				t.Errorf("signer calls = %d, want %d", tt.signer.calls, tt.wantSigns)
			}
		})
	}
}

func TestDispatcher_ConfirmAttempts(t *testing.T) {
	confirmer := &mockConfirmer{}
	d := NewDispatcher(testConfig(), &mockSigner{}, confirmer, nil, logger.Discard())

	if _, err := d.Dispatch(context.Background(), solOrder("orca")); err == nil {
		t.Fatal("Dispatch() error = nil, want error")
	}
	if confirmer.calls != 3 {
		t.Errorf("confirm polls = %d, want 3", confirmer.calls)
	}
}

func TestDispatcher_BalanceCap(t *testing.T) {
	tests := []struct {
		name       string
		balance    string
		amount     string
		wantAmount string
	}{
		// 10% of 1000 USDC = 100 USDC budget, 100 / 150 per SOL
		{name: "capped", balance: "1000", amount: "1", wantAmount: "0.6666666666666667"},
		{name: "within budget", balance: "10000", amount: "1", wantAmount: "1"},
		{name: "exactly at budget", balance: "1500", amount: "1", wantAmount: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := &mockSigner{}
			balances := &mockBalances{balance: decimal.RequireFromString(tt.balance)}
			d := NewDispatcher(testConfig(), signer, &mockConfirmer{confirmAfter: 1}, balances, logger.Discard())

			order := solOrder("orca")
			order.Amount = decimal.RequireFromString(tt.amount)
			if _, err := d.Dispatch(context.Background(), order); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if got := signer.intents[0].Amount; !got.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("Amount = %s, want %s", got, tt.wantAmount)
			}
		})
	}
}

func TestDispatcher_BaseUnits(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		amount     string
		balance    string
		wantCode   apperror.Code
		wantAmount string
		wantMinOut string
	}{
		// 1 SOL at 150 with 1% slippage: 148.5 USDC minimum out
		{name: "whole amount", base: "SOL", amount: "1", wantAmount: "1000000000", wantMinOut: "148500000"},
		// capped to 0.6666666666666667 SOL, truncated to lamports
		{name: "capped amount truncates", base: "SOL", amount: "1", balance: "1000", wantAmount: "666666666", wantMinOut: "99000000"},
		{name: "below one lamport", base: "SOL", amount: "0.0000000001", wantCode: apperror.CodeInvalidTradeSize},
		{name: "unknown base token", base: "WIF", amount: "1", wantCode: apperror.CodeUnknownToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Tokens = token.DefaultRegistry()
			var balances BalanceProvider
			if tt.balance != "" {
				balances = &mockBalances{balance: decimal.RequireFromString(tt.balance)}
			}
			signer := &mockSigner{}
			d := NewDispatcher(cfg, signer, &mockConfirmer{confirmAfter: 1}, balances, logger.Discard())

			order := solOrder("orca")
			order.Base = tt.base
			order.Amount = decimal.RequireFromString(tt.amount)
			_, err := d.Dispatch(context.Background(), order)

			if tt.wantCode != "" {
				if !apperror.HasCode(err, tt.wantCode) {
					t.Fatalf("Dispatch() error = %v, want %s", err, tt.wantCode)
				}
				if signer.calls != 0 {
					t.Errorf("signer calls = %d, want 0", signer.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			intent := signer.intents[0]
			if intent.AmountRaw != tt.wantAmount || intent.MinAmountOutRaw != tt.wantMinOut {
				t.Errorf("raw amounts = %s, %s; want %s, %s", intent.AmountRaw, intent.MinAmountOutRaw, tt.wantAmount, tt.wantMinOut)
			}
			if intent.BaseMint != token.MintWrappedSOL || intent.QuoteMint != token.MintUSDC {
				t.Errorf("mints = %s, %s", intent.BaseMint, intent.QuoteMint)
			}
		})
	}
}

func TestDispatcher_WithoutTokensLeavesRawEmpty(t *testing.T) {
	signer := &mockSigner{}
	d := NewDispatcher(testConfig(), signer, &mockConfirmer{confirmAfter: 1}, nil, logger.Discard())

	if _, err := d.Dispatch(context.Background(), solOrder("orca")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if intent := signer.intents[0]; intent.AmountRaw != "" || intent.BaseMint != "" {
		t.Errorf("intent = %+v, want no raw fields", intent)
	}
}

func TestDispatcher_ContextCancelledWhilePolling(t *testing.T) {
	cfg := testConfig()
	cfg.ConfirmInterval = time.Hour
	d := NewDispatcher(cfg, &mockSigner{}, &mockConfirmer{}, nil, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := d.Dispatch(ctx, solOrder("orca"))
	if !apperror.HasCode(err, apperror.CodeNotConfirmed) {
		t.Errorf("Dispatch() error = %v, want NOT_CONFIRMED", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Dispatch did not stop on context cancellation")
	}
}
