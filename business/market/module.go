// Package market implements the market data bounded context: venue adapters,
// historical prices and the shared fetch cache.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/market/app"
	marketDI "github.com/fd1az/dex-scanner/business/market/di"
	"github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/market/infra/history"
	"github.com/fd1az/dex-scanner/business/market/infra/orderbook"
	"github.com/fd1az/dex-scanner/business/market/infra/pairapi"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
	"github.com/fd1az/dex-scanner/internal/token"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.Adapters, func(sr di.ServiceRegistry) []app.VenueAdapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		adapters, err := BuildAdapters(cfg, log)
		if err != nil {
			panic("failed to create venue adapters: " + err.Error())
		}
		return adapters
	})

	di.RegisterToken(c, marketDI.HistoryClient, func(sr di.ServiceRegistry) app.HistoryClient {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := history.New(history.Config{
			BaseURL:           cfg.History.BaseURL,
			VsCurrency:        cfg.History.VsCurrency,
			APIKey:            cfg.History.APIKey,
			RequestsPerMinute: cfg.History.RequestsPerMinute,
			Timeout:           cfg.Scanner.VenueTimeout,
		}, log)
		if err != nil {
			panic("failed to create history client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, marketDI.PairCache, func(sr di.ServiceRegistry) *cache.Cache[string, []domain.Pair] {
		cfg := sr.Get("config").(*config.Config)
		return cache.New[string, []domain.Pair](cfg.Scanner.CacheExpiration)
	})

	di.RegisterToken(c, marketDI.HistoryCache, func(sr di.ServiceRegistry) *cache.Cache[string, []decimal.Decimal] {
		cfg := sr.Get("config").(*config.Config)
		return cache.New[string, []decimal.Decimal](cfg.Scanner.CacheExpiration)
	})

	// Public services
	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewMarketService(marketDI.GetAdapters(sr), marketDI.GetPairCache(sr), cfg.Scanner.CacheExpiration, log)
	})

	di.RegisterToken(c, marketDI.HistoryService, func(sr di.ServiceRegistry) *app.HistoryService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		tokens := sr.Get(monolith.ServiceTokens).(*token.Registry)
		return app.NewHistoryService(
			marketDI.GetHistoryClient(sr),
			tokens,
			marketDI.GetHistoryCache(sr),
			cfg.History.Days,
			cfg.Scanner.CacheExpiration,
			log,
		)
	})

	return nil
}

// Startup initializes the market module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	svc := marketDI.GetMarketService(sr)
	venues := svc.Venues()
	if len(venues) == 0 {
		return fmt.Errorf("no venues enabled")
	}

	pairs := marketDI.GetPairCache(sr)
	hist := marketDI.GetHistoryCache(sr)
	mono.OnClose(func() error {
		log.Debug(context.Background(), "closing market caches", "cached_venues", svc.CachedVenues())
		pairs.Close()
		hist.Close()
		return nil
	})

	ids := make([]string, len(venues))
	for i, v := range venues {
		ids[i] = v.String()
	}
	log.Info(ctx, "market module started", "venues", ids, "tokens", mono.Tokens().Count())
	return nil
}

// BuildAdapters creates one adapter per enabled venue, in scan order
// serum, raydium, orca.
func BuildAdapters(cfg *config.Config, log logger.LoggerInterface) ([]app.VenueAdapter, error) {
	var adapters []app.VenueAdapter

	if v := cfg.Venues.Serum; v.Enabled {
		a, err := orderbook.New(orderbook.Config{
			ID:                domain.VenueSerum,
			BaseURL:           v.BaseURL,
			Path:              v.Path,
			Markets:           v.Markets,
			Concurrency:       cfg.Scanner.FetchConcurrency,
			DepthLevels:       domain.DefaultDepthLevels,
			RequestsPerMinute: v.RequestsPerMinute,
			Timeout:           timeout(v, cfg),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("serum: %w", err)
		}
		adapters = append(adapters, a)
	}

	for _, pv := range []struct {
		spec pairapi.VenueSpec
		cfg  config.VenueConfig
	}{
		{spec: pairapi.Raydium, cfg: cfg.Venues.Raydium},
		{spec: pairapi.Orca, cfg: cfg.Venues.Orca},
	} {
		if !pv.cfg.Enabled {
			continue
		}
		a, err := pairapi.New(pv.spec, pairapi.Config{
			BaseURL:           pv.cfg.BaseURL,
			Path:              pv.cfg.Path,
			FocusToken:        cfg.Scanner.FocusToken,
			RequestsPerMinute: pv.cfg.RequestsPerMinute,
			Timeout:           timeout(pv.cfg, cfg),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pv.spec.ID, err)
		}
		adapters = append(adapters, a)
	}

	return adapters, nil
}

func timeout(v config.VenueConfig, cfg *config.Config) time.Duration {
	if v.Timeout > 0 {
		return v.Timeout
	}
	return cfg.Scanner.VenueTimeout
}
