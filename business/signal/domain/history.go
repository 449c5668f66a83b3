// Package domain contains the core types of the signal context.
package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultHistoryCapacity is the number of observations kept per pair.
const DefaultHistoryCapacity = 10

// PriceHistory keeps the last observed prices per pair key, oldest first.
// It is safe for concurrent use.
type PriceHistory struct {
	mu       sync.Mutex
	capacity int
	series   map[string][]decimal.Decimal
}

// NewPriceHistory creates a PriceHistory. A capacity below 1 uses the default.
func NewPriceHistory(capacity int) *PriceHistory {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &PriceHistory{
		capacity: capacity,
		series:   make(map[string][]decimal.Decimal),
	}
}

// push appends price to key, evicting the oldest observation when full.
func (h *PriceHistory) push(key string, price decimal.Decimal) {
	s := h.series[key]
	if len(s) == h.capacity {
		copy(s, s[1:])
		s[len(s)-1] = price
	} else {
		s = append(s, price)
	}
	h.series[key] = s
}

// Observe returns the average before price is recorded, then records it.
// ok is false on the first observation of key.
func (h *PriceHistory) Observe(key string, price decimal.Decimal) (previous decimal.Decimal, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous, ok = average(h.series[key])
	h.push(key, price)
	return previous, ok
}

func average(s []decimal.Decimal) (decimal.Decimal, bool) {
	if len(s) == 0 {
		return decimal.Zero, false
	}
	return decimal.Sum(s[0], s[1:]...).Div(decimal.NewFromInt(int64(len(s)))), true
}
