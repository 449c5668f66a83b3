// Package ratelimit throttles outbound venue requests using golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter. A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute requests with a burst of
// 10% of the rate. Zero or negative values disable limiting and return nil.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(perSecond(requestsPerMinute), burst),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

func perSecond(requestsPerMinute int) rate.Limit {
	return rate.Limit(float64(requestsPerMinute) / 60.0)
}
