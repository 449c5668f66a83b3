// Package di contains dependency injection tokens for the scanner context.
package di

import (
	"github.com/fd1az/dex-scanner/business/scanner/app"
	"github.com/fd1az/dex-scanner/business/scanner/infra"
	signalDomain "github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scheduler = di.NewToken[*app.Scheduler]("scanner.Scheduler")
	Engine    = di.NewToken[*app.Engine]("scanner.Engine")
)

// Internal service tokens
var (
	Detector     = di.NewToken[*app.Detector]("scanner.Detector")
	PriceHistory = di.NewToken[*signalDomain.PriceHistory]("scanner.PriceHistory")
	Reporter     = di.NewToken[*infra.MultiReporter]("scanner.Reporter")
	Metrics      = di.NewToken[*app.Metrics]("scanner.Metrics")
)

func GetScheduler(c di.ServiceRegistry) *app.Scheduler {
	return di.GetToken(c, Scheduler)
}

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetPriceHistory(c di.ServiceRegistry) *signalDomain.PriceHistory {
	return di.GetToken(c, PriceHistory)
}

func GetReporter(c di.ServiceRegistry) *infra.MultiReporter {
	return di.GetToken(c, Reporter)
}

func GetMetrics(c di.ServiceRegistry) *app.Metrics {
	return di.GetToken(c, Metrics)
}
