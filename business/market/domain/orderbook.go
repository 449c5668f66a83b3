package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultDepthLevels is how many levels per side count toward liquidity.
const DefaultDepthLevels = 5

var bpsMultiplier = decimal.NewFromInt(10000)

// Level is one price level.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Orderbook holds bids sorted high to low and asks sorted low to high.
type Orderbook struct {
	Market string
	Bids   []Level
	Asks   []Level
}

// NewOrderbook sorts the given levels into best-first order.
func NewOrderbook(market string, bids, asks []Level) *Orderbook {
	b := append([]Level(nil), bids...)
	a := append([]Level(nil), asks...)
	sort.SliceStable(b, func(i, j int) bool { return b[i].Price.GreaterThan(b[j].Price) })
	sort.SliceStable(a, func(i, j int) bool { return a[i].Price.LessThan(a[j].Price) })
	return &Orderbook{Market: market, Bids: b, Asks: a}
}

// BestBid returns the highest bid.
func (o *Orderbook) BestBid() (Level, bool) {
	if o == nil || len(o.Bids) == 0 {
		return Level{}, false
	}
	return o.Bids[0], true
}

// BestAsk returns the lowest ask.
func (o *Orderbook) BestAsk() (Level, bool) {
	if o == nil || len(o.Asks) == 0 {
		return Level{}, false
	}
	return o.Asks[0], true
}

// BidDepth sums the sizes of the top n bids.
func (o *Orderbook) BidDepth(n int) decimal.Decimal {
	return depth(o.Bids, n)
}

// AskDepth sums the sizes of the top n asks.
func (o *Orderbook) AskDepth(n int) decimal.Decimal {
	return depth(o.Asks, n)
}

// Liquidity is the thinner side of the top n levels. Both sides must clear a
// liquidity floor for the book to count as liquid.
func (o *Orderbook) Liquidity(n int) decimal.Decimal {
	if o == nil {
		return decimal.Zero
	}
	return decimal.Min(o.BidDepth(n), o.AskDepth(n))
}

// Crossed reports whether the best bid is strictly above the best ask.
func (o *Orderbook) Crossed() bool {
	bid, okBid := o.BestBid()
	ask, okAsk := o.BestAsk()
	return okBid && okAsk && bid.Price.GreaterThan(ask.Price)
}

// Spread is the ask-bid distance; negative when the book is crossed.
type Spread struct {
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	Absolute    decimal.Decimal // ask - bid
	BasisPoints decimal.Decimal // (ask - bid) / bid * 10000
}

// Spread computes the top-of-book spread.
func (o *Orderbook) Spread() (Spread, bool) {
	bid, okBid := o.BestBid()
	ask, okAsk := o.BestAsk()
	if !okBid || !okAsk {
		return Spread{}, false
	}
	return calculateSpread(bid.Price, ask.Price), true
}

// calculateSpread computes the spread between a bid and an ask price.
func calculateSpread(bid, ask decimal.Decimal) Spread {
	absolute := ask.Sub(bid)
	bps := decimal.Zero
	if !bid.IsZero() {
		bps = absolute.Div(bid).Mul(bpsMultiplier)
	}
	return Spread{
		Bid:         bid,
		Ask:         ask,
		Absolute:    absolute,
		BasisPoints: bps,
	}
}

func depth(levels []Level, n int) decimal.Decimal {
	total := decimal.Zero
	for i, l := range levels {
		if i >= n {
			break
		}
		total = total.Add(l.Size)
	}
	return total
}
