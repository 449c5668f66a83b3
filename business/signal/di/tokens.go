// Package di contains dependency injection tokens for the signal context.
package di

import (
	"github.com/fd1az/dex-scanner/business/signal/app"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Analyzer = di.NewToken[*app.Analyzer]("signal.Analyzer")
)

func GetAnalyzer(c di.ServiceRegistry) *app.Analyzer {
	return di.GetToken(c, Analyzer)
}
