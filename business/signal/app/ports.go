// Package app contains the technical indicators and the analyzer service of
// the signal context.
package app

import (
	"context"

	"github.com/shopspring/decimal"
)

// HistorySource returns chronological close prices for a token symbol.
type HistorySource interface {
	PriceHistory(ctx context.Context, symbol string) ([]decimal.Decimal, error)
}
