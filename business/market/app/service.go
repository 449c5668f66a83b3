package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const tracerName = "github.com/fd1az/dex-scanner/business/market/app"

// VenueSnapshot is the outcome of fetching one venue in one cycle.
type VenueSnapshot struct {
	Venue domain.Venue
	Pairs []domain.Pair
	// Err is the classified failure, if any. Pairs is empty when Err is set.
	Err      error
	Duration time.Duration
}

// MarketService fetches every venue through the shared cache.
type MarketService struct {
	adapters   []VenueAdapter
	cache      *cache.Cache[string, []domain.Pair]
	expiration time.Duration
	logger     logger.LoggerInterface
	tracer     trace.Tracer
}

// NewMarketService creates a service over adapters. Adapters are scanned in
// the order given.
func NewMarketService(adapters []VenueAdapter, c *cache.Cache[string, []domain.Pair], expiration time.Duration, log logger.LoggerInterface) *MarketService {
	return &MarketService{
		adapters:   adapters,
		cache:      c,
		expiration: expiration,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
}

// CachedVenues returns the number of venue entries held in the cache.
func (s *MarketService) CachedVenues() int {
	return s.cache.Len()
}

// Venues lists the configured venues.
func (s *MarketService) Venues() []domain.Venue {
	out := make([]domain.Venue, len(s.adapters))
	for i, a := range s.adapters {
		out[i] = a.Venue()
	}
	return out
}

// Snapshot fetches all venues concurrently. The result keeps adapter order and
// always has one entry per venue; a failing venue never affects the others.
func (s *MarketService) Snapshot(ctx context.Context) []VenueSnapshot {
	ctx, span := s.tracer.Start(ctx, "market.snapshot",
		trace.WithAttributes(attribute.Int("venues", len(s.adapters))),
	)
	defer span.End()

	out := make([]VenueSnapshot, len(s.adapters))
	var g errgroup.Group
	for i, a := range s.adapters {
		g.Go(func() error {
			out[i] = s.fetchVenue(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *MarketService) fetchVenue(ctx context.Context, a VenueAdapter) VenueSnapshot {
	venue := a.Venue()
	ctx, span := s.tracer.Start(ctx, "market.fetch_venue",
		trace.WithAttributes(attribute.String("venue", venue.String())),
	)
	defer span.End()

	start := time.Now()
	pairs, err := s.cache.GetOrFetch(ctx, cacheKey(venue.ID), a.FetchPairs, s.expiration)
	snap := VenueSnapshot{Venue: venue, Pairs: pairs, Duration: time.Since(start)}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		snap.Pairs = nil
		snap.Err = err
		s.logger.Warn(ctx, "venue fetch failed",
			"venue", venue.String(),
			"code", string(apperror.GetCode(err)),
			"error", err)
		return snap
	}

	span.SetAttributes(attribute.Int("pairs", len(pairs)))
	s.logger.Debug(ctx, "venue fetched", "venue", venue.String(), "pairs", len(pairs), "duration", snap.Duration)
	return snap
}

func cacheKey(id domain.VenueID) string {
	return "pairs:" + string(id)
}
