// Package domain contains the core types of the execution context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Route is how an intent is executed on a venue.
type Route string

const (
	// RouteLimitOrder places a limit order on an order book.
	RouteLimitOrder Route = "limit_order"
	// RouteSwap swaps through an AMM pool.
	RouteSwap Route = "swap"
)

// Side of the trade.
type Side string

const SideBuy Side = "buy"

// TradeIntent is an unsigned trade to submit. The raw fields carry the same
// amounts in on-chain base units: AmountRaw in Base, MinAmountOutRaw in Quote.
type TradeIntent struct {
	ID              string          `json:"id"`
	Venue           string          `json:"venue"`
	Route           Route           `json:"route"`
	Side            Side            `json:"side"`
	Base            string          `json:"base"`
	Quote           string          `json:"quote"`
	BaseMint        string          `json:"base_mint,omitempty"`
	QuoteMint       string          `json:"quote_mint,omitempty"`
	Market          string          `json:"market"`
	Amount          decimal.Decimal `json:"amount"`
	AmountRaw       string          `json:"amount_raw,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Slippage        decimal.Decimal `json:"slippage"`
	MinAmountOut    decimal.Decimal `json:"min_amount_out"`
	MinAmountOutRaw string          `json:"min_amount_out_raw,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MinAmountOut is the slippage-adjusted output: (1 - slippage) * amount * price.
func MinAmountOut(amount, price, slippage decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(slippage).Mul(amount).Mul(price)
}

// TransactionResult is the outcome of a submitted intent.
type TransactionResult struct {
	IntentID    string    `json:"intent_id"`
	Venue       string    `json:"venue"`
	Signature   string    `json:"signature"`
	Confirmed   bool      `json:"confirmed"`
	Attempts    int       `json:"attempts"`
	SubmittedAt time.Time `json:"submitted_at"`
}
