package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFloorAndFromBaseUnits(t *testing.T) {
	usdc := New("USDC", "USD Coin", MintUSDC, 6, "usd-coin")

	raw, err := usdc.FloorBaseUnits(decimal.RequireFromString("148.5123456789"))
	if err != nil {
		t.Fatalf("FloorBaseUnits() error = %v", err)
	}
	if raw.Cmp(big.NewInt(148512345)) != 0 {
		t.Errorf("FloorBaseUnits() = %s, want 148512345", raw)
	}
	if got := usdc.FromBaseUnits(raw); !got.Equal(decimal.RequireFromString("148.512345")) {
		t.Errorf("FromBaseUnits() = %s", got)
	}
	if !usdc.FromBaseUnits(nil).IsZero() {
		t.Error("FromBaseUnits(nil) should be zero")
	}
	if _, err := usdc.FloorBaseUnits(decimal.NewFromInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("FloorBaseUnits(-1) error = %v, want ErrNegativeAmount", err)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	sol, ok := r.BySymbol("sol")
	if !ok || sol.Mint != MintWrappedSOL {
		t.Fatalf("BySymbol(sol) = %v, %v", sol, ok)
	}
	if id, ok := r.HistoryID("SOL"); !ok || id != "solana" {
		t.Errorf("HistoryID(SOL) = %q, %v", id, ok)
	}

	before := r.Count()
	r.OverrideHistoryIDs(map[string]string{"sol": "wrapped-solana", "jup": "jupiter"})
	if id, _ := r.HistoryID("SOL"); id != "wrapped-solana" {
		t.Errorf("HistoryID(SOL) after override = %q", id)
	}
	if id, ok := r.HistoryID("JUP"); !ok || id != "jupiter" {
		t.Errorf("HistoryID(JUP) = %q, %v", id, ok)
	}
	if r.Count() != before+1 {
		t.Errorf("Count() = %d, want %d", r.Count(), before+1)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(New("SOL", "Solana", MintWrappedSOL, 9, "solana"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate symbol")
		}
	}()
	r.Register(New("sol", "Solana again", "other", 9, ""))
}

func TestRegistry_DuplicateMintPanics(t *testing.T) {
	r := NewRegistry()
	r.Register(New("SOL", "Solana", MintWrappedSOL, 9, "solana"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate mint")
		}
	}()
	r.Register(New("WSOL", "Wrapped SOL", MintWrappedSOL, 9, ""))
}
