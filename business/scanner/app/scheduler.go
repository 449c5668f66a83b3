package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fd1az/dex-scanner/business/scanner/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
)

// DefaultInterval is the pause between scan cycles.
const DefaultInterval = 10 * time.Second

// Scheduler drives the engine at a fixed interval. Cycles never overlap.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   logger.LoggerInterface
	running  atomic.Bool
	last     atomic.Int64
}

// NewScheduler creates a Scheduler.
func NewScheduler(engine *Engine, interval time.Duration, log logger.LoggerInterface) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{engine: engine, interval: interval, logger: log}
}

// Interval returns the pause between cycles.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// RunOnce runs a single cycle.
func (s *Scheduler) RunOnce(ctx context.Context) domain.CycleReport {
	report := s.engine.RunCycle(ctx)
	s.last.Store(report.StartedAt.Add(report.Duration).UnixNano())
	return report
}

// Run runs cycles until ctx is cancelled. The first cycle starts immediately;
// each following one starts interval after the previous one finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	defer s.running.Store(false)

	s.logger.Info(ctx, "scheduler started", "interval", s.interval)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "scheduler stopped", "reason", ctx.Err())
			return nil
		case <-timer.C:
		}

		s.RunOnce(ctx)
		if ctx.Err() != nil {
			s.logger.Info(ctx, "scheduler stopped", "reason", ctx.Err())
			return nil
		}
		timer.Reset(s.interval)
	}
}

// LastCycle returns when the last cycle finished, or the zero time.
func (s *Scheduler) LastCycle() time.Time {
	n := s.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Healthy reports whether a cycle finished within maxAge. Before the first
// cycle it reports healthy.
func (s *Scheduler) Healthy(now time.Time, maxAge time.Duration) (bool, string) {
	last := s.LastCycle()
	if last.IsZero() {
		return true, "waiting for first cycle"
	}
	age := now.Sub(last)
	if age > maxAge {
		return false, fmt.Sprintf("last cycle %s ago", age.Round(time.Second))
	}
	return true, fmt.Sprintf("last cycle %s ago", age.Round(time.Millisecond))
}
