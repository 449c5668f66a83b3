// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/market/app"
	"github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/internal/cache"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService  = di.NewToken[*app.MarketService]("market.MarketService")
	HistoryService = di.NewToken[*app.HistoryService]("market.HistoryService")
)

// Private dependency tokens - internal to market module
var (
	Adapters      = di.NewToken[[]app.VenueAdapter]("market:adapters")
	HistoryClient = di.NewToken[app.HistoryClient]("market:historyClient")
	PairCache     = di.NewToken[*cache.Cache[string, []domain.Pair]]("market:pairCache")
	HistoryCache  = di.NewToken[*cache.Cache[string, []decimal.Decimal]]("market:historyCache")
)

func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetHistoryService(c di.ServiceRegistry) *app.HistoryService {
	return di.GetToken(c, HistoryService)
}

func GetAdapters(c di.ServiceRegistry) []app.VenueAdapter {
	return di.GetToken(c, Adapters)
}

func GetHistoryClient(c di.ServiceRegistry) app.HistoryClient {
	return di.GetToken(c, HistoryClient)
}

func GetPairCache(c di.ServiceRegistry) *cache.Cache[string, []domain.Pair] {
	return di.GetToken(c, PairCache)
}

func GetHistoryCache(c di.ServiceRegistry) *cache.Cache[string, []decimal.Decimal] {
	return di.GetToken(c, HistoryCache)
}
