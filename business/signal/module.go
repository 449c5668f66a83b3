// Package signal implements the technical analysis bounded context.
package signal

import (
	"context"

	marketDI "github.com/fd1az/dex-scanner/business/market/di"
	"github.com/fd1az/dex-scanner/business/signal/app"
	signalDI "github.com/fd1az/dex-scanner/business/signal/di"
	"github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
)

// Module implements the signal bounded context.
type Module struct{}

// RegisterServices registers the analyzer with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, signalDI.Analyzer, func(sr di.ServiceRegistry) *app.Analyzer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewAnalyzer(marketDI.GetHistoryService(sr), app.AnalyzerConfig{
			RSIPeriod:    cfg.Indicators.RSIPeriod,
			WMAPeriod:    cfg.Indicators.WMAPeriod,
			RSIBuyBelow:  cfg.Indicators.RSIBuyBelowDecimal(),
			ShortHistory: domain.ParseShortHistoryPolicy(cfg.Indicators.ShortHistory),
		}, log)
	})
	return nil
}

// Startup initializes the signal module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	signalDI.GetAnalyzer(mono.Services())

	mono.Logger().Info(ctx, "signal module started",
		"rsi_period", cfg.Indicators.RSIPeriod,
		"wma_period", cfg.Indicators.WMAPeriod,
		"short_history", string(domain.ParseShortHistoryPolicy(cfg.Indicators.ShortHistory)))
	return nil
}
