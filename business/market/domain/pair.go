package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pair is one market observed on a venue during a scan.
type Pair struct {
	Base      string
	Quote     string
	Venue     Venue
	Address   string
	Liquidity decimal.Decimal
	Price     decimal.Decimal
	// Book is only set for order book venues.
	Book      *Orderbook
	FetchedAt time.Time
}

// Key identifies the pair across cycles, e.g. "SOL-USDC".
func (p Pair) Key() string {
	return PairKey(p.Base, p.Quote)
}

// PairKey builds a pair key from two symbols.
func PairKey(base, quote string) string {
	return strings.ToUpper(base) + "-" + strings.ToUpper(quote)
}

// Contains reports whether symbol is either side of the pair.
func (p Pair) Contains(symbol string) bool {
	return strings.EqualFold(p.Base, symbol) || strings.EqualFold(p.Quote, symbol)
}

func (p Pair) String() string {
	return p.Venue.String() + ":" + p.Key()
}

// SplitPairName parses "BASE-QUOTE" or "BASE/QUOTE".
func SplitPairName(name string) (base, quote string, ok bool) {
	for _, sep := range []string{"-", "/"} {
		if b, q, found := strings.Cut(name, sep); found {
			b, q = strings.TrimSpace(b), strings.TrimSpace(q)
			if b != "" && q != "" {
				return strings.ToUpper(b), strings.ToUpper(q), true
			}
		}
	}
	return "", "", false
}
