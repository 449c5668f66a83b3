// Package circuitbreaker wraps sony/gobreaker with typed execution and
// apperror-coded failures.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/dex-scanner/internal/apperror"
)

// State aliases gobreaker.State so callers need not import gobreaker.
type State = gobreaker.State

// Config holds breaker settings.
type Config struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears counts while closed. Zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// IsSuccessful classifies errors that must not count as failures.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to State)
}

// DefaultConfig trips after 5 consecutive failures and probes after 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// CircuitBreaker guards calls returning T.
type CircuitBreaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New creates a breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  cfg.IsSuccessful,
	}
	return &CircuitBreaker[T]{
		name: cfg.Name,
		cb:   gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Execute runs fn unless the breaker is open. Rejections are returned as
// CodeCircuitOpen errors.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) {
		return result, apperror.New(apperror.CodeCircuitOpen, apperror.WithContext(c.name), apperror.WithCause(err))
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return result, apperror.New(apperror.CodeCircuitHalfOpen, apperror.WithContext(c.name), apperror.WithCause(err))
	}
	return result, err
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() State {
	return c.cb.State()
}

// Name returns the breaker name.
func (c *CircuitBreaker[T]) Name() string {
	return c.name
}
