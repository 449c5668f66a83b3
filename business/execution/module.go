// Package execution implements the trade execution bounded context.
package execution

import (
	"context"

	"github.com/fd1az/dex-scanner/business/execution/app"
	executionDI "github.com/fd1az/dex-scanner/business/execution/di"
	"github.com/fd1az/dex-scanner/business/execution/infra/relay"
	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/monolith"
	"github.com/fd1az/dex-scanner/internal/token"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers the relay client and the dispatcher.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.RelayClient, func(sr di.ServiceRegistry) *relay.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		tokens := sr.Get(monolith.ServiceTokens).(*token.Registry)

		client, err := relay.New(relay.Config{
			URL:       cfg.Execution.RelayURL,
			SignerKey: cfg.Execution.SignerKey,
			Timeout:   cfg.Execution.Timeout,
			Tokens:    tokens,
		}, log)
		if err != nil {
			panic("failed to create relay client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, executionDI.Dispatcher, func(sr di.ServiceRegistry) *app.Dispatcher {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Execution.Enabled {
			return nil
		}
		log := sr.Get("logger").(logger.LoggerInterface)
		client := executionDI.GetRelayClient(sr)

		return app.NewDispatcher(app.DispatcherConfig{
			Slippage:           cfg.Execution.SlippageDecimal(),
			MaxBalanceFraction: cfg.Execution.MaxBalanceFractionDecimal(),
			ConfirmAttempts:    cfg.Execution.ConfirmAttempts,
			ConfirmInterval:    cfg.Execution.ConfirmInterval,
			Routes:             app.DefaultRoutes,
			Tokens:             sr.Get(monolith.ServiceTokens).(*token.Registry),
		}, client, client, client, log)
	})

	return nil
}

// Startup initializes the execution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if !cfg.Execution.Enabled {
		log.Info(ctx, "execution disabled, opportunities are reported only")
		return nil
	}

	client := executionDI.GetRelayClient(mono.Services())
	log.Info(ctx, "execution module started",
		"relay", cfg.Execution.RelayURL,
		"signer", client.Address().Hex(),
		"slippage", cfg.Execution.SlippageDecimal().String())
	return nil
}
