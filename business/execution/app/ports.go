// Package app contains the execution dispatcher and its ports.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/internal/token"
)

// Signer signs an intent with the operator key and submits it.
type Signer interface {
	SignAndSend(ctx context.Context, intent domain.TradeIntent) (signature string, err error)
}

// Confirmer reports whether a submitted transaction is confirmed.
type Confirmer interface {
	Confirmed(ctx context.Context, signature string) (bool, error)
}

// BalanceProvider returns the wallet balance of a token symbol.
type BalanceProvider interface {
	Balance(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TokenLookup resolves symbols to mint metadata for base-unit conversion.
type TokenLookup interface {
	BySymbol(symbol string) (*token.Token, bool)
}
