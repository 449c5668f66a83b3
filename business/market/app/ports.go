// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/market/domain"
)

// VenueAdapter turns one venue's API into pairs. On failure it returns an
// empty slice together with a VENUE_UNAVAILABLE or MALFORMED_RESPONSE error.
type VenueAdapter interface {
	Venue() domain.Venue
	FetchPairs(ctx context.Context) ([]domain.Pair, error)
}

// LiquiditySource is implemented by order book venues.
type LiquiditySource interface {
	FetchLiquidity(ctx context.Context, address string) (*domain.Orderbook, error)
}

// HistoryClient loads a chronological close price series for a history id.
type HistoryClient interface {
	Prices(ctx context.Context, historyID string, days int) ([]decimal.Decimal, error)
}
