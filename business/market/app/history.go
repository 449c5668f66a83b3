package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/token"
)

// HistoryService serves cached historical close prices keyed by token symbol.
type HistoryService struct {
	client     HistoryClient
	tokens     *token.Registry
	cache      *cache.Cache[string, []decimal.Decimal]
	days       int
	expiration time.Duration
	logger     logger.LoggerInterface
}

// NewHistoryService creates a HistoryService loading days of history per token.
func NewHistoryService(
	client HistoryClient,
	tokens *token.Registry,
	c *cache.Cache[string, []decimal.Decimal],
	days int,
	expiration time.Duration,
	log logger.LoggerInterface,
) *HistoryService {
	return &HistoryService{
		client:     client,
		tokens:     tokens,
		cache:      c,
		days:       days,
		expiration: expiration,
		logger:     log,
	}
}

// PriceHistory returns the chronological close prices of symbol.
func (s *HistoryService) PriceHistory(ctx context.Context, symbol string) ([]decimal.Decimal, error) {
	id, ok := s.tokens.HistoryID(symbol)
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(symbol))
	}

	key := fmt.Sprintf("history:%s:%d", id, s.days)
	prices, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]decimal.Decimal, error) {
		s.logger.Debug(ctx, "loading price history", "symbol", symbol, "id", id, "days", s.days)
		return s.client.Prices(ctx, id, s.days)
	}, s.expiration)
	if err != nil {
		return nil, err
	}
	return prices, nil
}
