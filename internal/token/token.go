// Package token describes the SPL tokens the scanner knows about and converts
// human amounts to on-chain base units.
package token

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("token: negative amount")

// Token is reference metadata for one SPL mint. Symbol is display metadata;
// the mint is identity.
type Token struct {
	Symbol    string
	Name      string
	Mint      string
	Decimals  uint8
	HistoryID string
}

// New creates a Token, panicking on values that can only be programming errors.
func New(symbol, name, mint string, decimals uint8, historyID string) *Token {
	if symbol == "" {
		panic("token: empty symbol")
	}
	if decimals > 18 {
		panic("token: suspicious decimals (>18)")
	}
	return &Token{
		Symbol:    strings.ToUpper(symbol),
		Name:      name,
		Mint:      mint,
		Decimals:  decimals,
		HistoryID: historyID,
	}
}

func (t *Token) String() string {
	return t.Symbol
}

// FloorBaseUnits converts a human amount into base units, truncating any
// excess precision.
func (t *Token) FloorBaseUnits(d decimal.Decimal) (*big.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return d.Shift(int32(t.Decimals)).Truncate(0).BigInt(), nil
}

// FromBaseUnits converts a raw on-chain amount into a human amount.
func (t *Token) FromBaseUnits(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(t.Decimals))
}
