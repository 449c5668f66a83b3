// Package domain contains the core types of the scanner context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
)

// Action is what the scanner recommends for an opportunity.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionNone Action = "none"
)

// Trigger names the rule that produced a candidate.
type Trigger string

const (
	// TriggerCrossedBook fires when the best bid is above the best ask.
	TriggerCrossedBook Trigger = "crossed_book"
	// TriggerPriceChange fires when the price moved away from its rolling average.
	TriggerPriceChange Trigger = "price_change"
)

// Opportunity is a confirmed candidate. It is reported and dispatched, never stored.
type Opportunity struct {
	Venue   marketDomain.Venue
	Pair    marketDomain.Pair
	Trigger Trigger
	Price   decimal.Decimal
	Amount  decimal.Decimal
	// Reference is the price the trigger compared against: the previous
	// average, or the best bid of a crossed book.
	Reference  decimal.Decimal
	Change     decimal.Decimal
	Action     Action
	Signal     signalDomain.Signal
	DetectedAt time.Time
}

// Thresholds are read-only after startup.
type Thresholds struct {
	MinLiquidity        decimal.Decimal
	PriceChangeFraction decimal.Decimal
}

// DefaultThresholds returns a 1000 liquidity floor and a 5% change trigger.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLiquidity:        decimal.NewFromInt(1000),
		PriceChangeFraction: decimal.RequireFromString("0.05"),
	}
}
