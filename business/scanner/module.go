// Package scanner implements the scan loop bounded context: liquidity
// filtering, trigger detection, reporting and dispatch.
package scanner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	executionDI "github.com/fd1az/dex-scanner/business/execution/di"
	marketDI "github.com/fd1az/dex-scanner/business/market/di"
	"github.com/fd1az/dex-scanner/business/scanner/app"
	scannerDI "github.com/fd1az/dex-scanner/business/scanner/di"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
	"github.com/fd1az/dex-scanner/business/scanner/infra"
	signalDI "github.com/fd1az/dex-scanner/business/signal/di"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
)

// Module implements the scanner bounded context.
type Module struct{}

// RegisterServices registers the detector, engine, reporters and scheduler.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, scannerDI.PriceHistory, func(sr di.ServiceRegistry) *signalDomain.PriceHistory {
		cfg := sr.Get("config").(*config.Config)
		return signalDomain.NewPriceHistory(cfg.Scanner.HistoryCapacity)
	})

	di.RegisterToken(c, scannerDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		thresholds := domain.Thresholds{
			MinLiquidity:        cfg.Thresholds.MinLiquidityDecimal(),
			PriceChangeFraction: cfg.Thresholds.PriceChangeFractionDecimal(),
		}
		return app.NewDetector(
			thresholds,
			cfg.Scanner.TradeAmountDecimal(),
			scannerDI.GetPriceHistory(sr),
			signalDI.GetAnalyzer(sr),
			log,
		)
	})

	di.RegisterToken(c, scannerDI.Reporter, func(sr di.ServiceRegistry) *infra.MultiReporter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		reporters, err := buildReporters(cfg, log)
		if err != nil {
			panic("failed to create reporters: " + err.Error())
		}
		return infra.NewMultiReporter(reporters...)
	})

	di.RegisterToken(c, scannerDI.Metrics, func(sr di.ServiceRegistry) *app.Metrics {
		metrics, err := app.NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("failed to create scanner metrics: " + err.Error())
		}
		return metrics
	})

	di.RegisterToken(c, scannerDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		log := sr.Get("logger").(logger.LoggerInterface)

		var dispatcher app.Dispatcher
		if d := executionDI.GetDispatcher(sr); d != nil {
			dispatcher = d
		}

		return app.NewEngine(
			marketDI.GetMarketService(sr),
			scannerDI.GetDetector(sr),
			dispatcher,
			scannerDI.GetReporter(sr),
			scannerDI.GetMetrics(sr),
			log,
		)
	})

	di.RegisterToken(c, scannerDI.Scheduler, func(sr di.ServiceRegistry) *app.Scheduler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewScheduler(scannerDI.GetEngine(sr), cfg.Scanner.Interval, log)
	})

	return nil
}

// Startup starts the reporters and registers the scheduler health check.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	reporter := scannerDI.GetReporter(sr)
	if err := reporter.Start(ctx); err != nil {
		return fmt.Errorf("start reporters: %w", err)
	}
	mono.OnClose(reporter.Stop)

	scheduler := scannerDI.GetScheduler(sr)
	if hs := mono.Health(); hs != nil {
		maxAge := healthMaxAge(scheduler.Interval(), mono.Config().Execution)
		hs.RegisterCheck("scanner", func(ctx context.Context) (bool, string) {
			return scheduler.Healthy(time.Now(), maxAge)
		})
	}

	log.Info(ctx, "scanner module started",
		"interval", scheduler.Interval(),
		"reporters", reporter.Len(),
		"execution", executionDI.GetDispatcher(sr) != nil)
	return nil
}

// healthMaxAge is how stale the last completed cycle may be before the scanner
// reports unhealthy. With execution enabled a cycle may also wait out the
// confirmation budget of a dispatch.
func healthMaxAge(interval time.Duration, exec config.ExecutionConfig) time.Duration {
	maxAge := 3 * interval
	if exec.Enabled && exec.ConfirmAttempts > 0 {
		maxAge += time.Duration(exec.ConfirmAttempts) * exec.ConfirmInterval
	}
	return maxAge
}

func buildReporters(cfg *config.Config, log logger.LoggerInterface) ([]app.Reporter, error) {
	var reporters []app.Reporter

	if cfg.Reporting.Console {
		reporters = append(reporters, infra.NewConsoleReporter())
	}

	if rc := cfg.Reporting.Redis; rc.Enabled {
		client := infra.NewRedisClient(rc.Addr, rc.Password, rc.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
		}
		reporters = append(reporters, infra.NewRedisReporter(client, rc.Channel, log))
	}

	if tc := cfg.Reporting.Telegram; tc.Enabled {
		tg, err := infra.NewTelegramReporter(tc.Token, tc.ChatID)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, tg)
	}

	return reporters, nil
}
