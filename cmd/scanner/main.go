// Package main is the entry point for the DEX scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/dex-scanner/business/execution"
	"github.com/fd1az/dex-scanner/business/market"
	"github.com/fd1az/dex-scanner/business/scanner"
	scannerDI "github.com/fd1az/dex-scanner/business/scanner/di"
	signalModule "github.com/fd1az/dex-scanner/business/signal"
	"github.com/fd1az/dex-scanner/internal/apm"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/health"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/metrics"
	"github.com/fd1az/dex-scanner/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single scan cycle and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dex-scanner %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *once); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting DEX scanner",
		"version", version,
		"environment", cfg.App.Environment,
		"once", once,
	)

	if cfg.Telemetry.Enabled {
		tp, err := apm.NewTraceProvider(ctx, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer tp.Stop()

		mp, err := metrics.NewMetricProvider(ctx,
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer shutdown(log, "meter provider", mp.Shutdown)

		prom := metrics.NewPrometheusServer(cfg.Telemetry.PrometheusPort, log)
		prom.Start(ctx)
		defer shutdown(log, "prometheus server", prom.Stop)
	}

	var hs *health.Server
	if cfg.Health.Enabled && !once {
		hs = health.NewServer(cfg.Health.Port, version, log)
		hs.Start(ctx)
		defer shutdown(log, "health server", hs.Stop)
	}

	mono := monolith.New(cfg, log, hs)
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "error closing modules", "error", err)
		}
	}()

	// Dependency order: the scanner resolves services from every other module.
	modules := []monolith.Module{
		&market.Module{},
		&signalModule.Module{},
		&execution.Module{},
		&scanner.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	scheduler := scannerDI.GetScheduler(mono.Services())
	if once {
		report := scheduler.RunOnce(ctx)
		log.Info(ctx, "scan finished",
			"cycle", report.Cycle,
			"pairs", len(report.Outcomes),
			"opportunities", len(report.Opportunities),
			"failed_venues", len(report.FailedVenues()))
		return nil
	}

	log.Info(ctx, "all modules started, beginning scan loop")
	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info(context.Background(), "shutting down")
	return nil
}

func logLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func shutdown(log logger.LoggerInterface, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn(ctx, "shutdown failed", "component", what, "error", err)
	}
}
