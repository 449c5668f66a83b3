// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/dex-scanner/business/execution/app"
	"github.com/fd1az/dex-scanner/business/execution/infra/relay"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	// Dispatcher resolves to nil when execution is disabled.
	Dispatcher = di.NewToken[*app.Dispatcher]("execution.Dispatcher")
)

// Private dependency tokens - internal to execution module
var (
	RelayClient = di.NewToken[*relay.Client]("execution:relayClient")
)

func GetDispatcher(c di.ServiceRegistry) *app.Dispatcher {
	return di.GetToken(c, Dispatcher)
}

func GetRelayClient(c di.ServiceRegistry) *relay.Client {
	return di.GetToken(c, RelayClient)
}
