// Package domain contains the core types of the market context.
package domain

// VenueID identifies a trading venue.
type VenueID string

const (
	VenueSerum   VenueID = "serum"
	VenueRaydium VenueID = "raydium"
	VenueOrca    VenueID = "orca"
)

func (v VenueID) String() string {
	return string(v)
}

// VenueKind tells the detector which rule applies.
type VenueKind string

const (
	// KindOrderBook venues expose bids and asks.
	KindOrderBook VenueKind = "order_book"
	// KindPairPrice venues expose a pair list with last price and liquidity.
	KindPairPrice VenueKind = "pair_price"
)

// Venue is immutable after startup.
type Venue struct {
	ID      VenueID
	Kind    VenueKind
	BaseURL string
}

func (v Venue) String() string {
	return string(v.ID)
}
