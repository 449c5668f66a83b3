// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"

	"github.com/fd1az/dex-scanner/internal/config"
	"github.com/fd1az/dex-scanner/internal/di"
	"github.com/fd1az/dex-scanner/internal/health"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/internal/token"
)

// Well-known service names registered by New.
const (
	ServiceConfig = "config"
	ServiceLogger = "logger"
	ServiceTokens = "tokenRegistry"
	ServiceHealth = "health"
)

// Monolith is the application container shared by all modules.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Tokens() *token.Registry
	Health() *health.Server
	Services() di.ServiceRegistry
	// OnClose registers fn to run, last registered first, when the app closes.
	OnClose(fn func() error)
}

// Module is a bounded context that registers services and starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	tokens    *token.Registry
	health    *health.Server
	container di.Container
	closers   []func() error
}

// New creates the container and registers the shared services.
func New(cfg *config.Config, log logger.LoggerInterface, hs *health.Server) *app {
	tokens := token.DefaultRegistry()
	tokens.OverrideHistoryIDs(cfg.History.TokenIDs)

	container := di.NewContainer()
	a := &app{
		config:    cfg,
		logger:    log,
		tokens:    tokens,
		health:    hs,
		container: container,
	}

	container.Register(ServiceConfig, cfg)
	container.Register(ServiceLogger, log)
	container.Register(ServiceTokens, tokens)
	container.Register(ServiceHealth, hs)

	return a
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Tokens() *token.Registry {
	return a.tokens
}

func (a *app) Health() *health.Server {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
	}
	return nil
}

// Close runs the registered closers and returns the first error.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
