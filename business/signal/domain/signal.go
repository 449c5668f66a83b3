package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the analyzer decision for a candidate.
type Verdict string

const (
	VerdictBuy  Verdict = "buy"
	VerdictNone Verdict = "none"
)

// Signal is the result of evaluating a token's price history.
type Signal struct {
	Symbol  string
	RSI     decimal.Decimal
	WMA     decimal.Decimal
	Samples int
	Verdict Verdict
	At      time.Time
}

// IsBuy reports a buy verdict.
func (s Signal) IsBuy() bool {
	return s.Verdict == VerdictBuy
}

// ShortHistoryPolicy decides what WMA does with fewer samples than its period.
type ShortHistoryPolicy string

const (
	// ShortHistoryPartial averages over the samples available.
	ShortHistoryPartial ShortHistoryPolicy = "partial"
	// ShortHistoryStrict fails with INSUFFICIENT_DATA.
	ShortHistoryStrict ShortHistoryPolicy = "strict"
)

// ParseShortHistoryPolicy maps a config value to a policy, defaulting to partial.
func ParseShortHistoryPolicy(s string) ShortHistoryPolicy {
	if ShortHistoryPolicy(s) == ShortHistoryStrict {
		return ShortHistoryStrict
	}
	return ShortHistoryPartial
}
