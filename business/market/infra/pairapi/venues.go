package pairapi

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/market/domain"
)

// VenueSpec is the per-venue data that parameterises Adapter.
type VenueSpec struct {
	ID          domain.VenueID
	DefaultPath string
	Decode      func(raw json.RawMessage) (domain.Pair, error)
}

// Raydium lists AMM pairs at GET /pairs. Elements carry a "RAY-USDC" style
// name and may omit explicit token symbols.
var Raydium = VenueSpec{
	ID:          domain.VenueRaydium,
	DefaultPath: "pairs",
	Decode:      decodeRaydium,
}

// Orca lists whirlpool pairs at GET /v1/pairs.
var Orca = VenueSpec{
	ID:          domain.VenueOrca,
	DefaultPath: "v1/pairs",
	Decode:      decodeOrca,
}

// Specs indexes the known pair-price venues.
var Specs = map[domain.VenueID]VenueSpec{
	domain.VenueRaydium: Raydium,
	domain.VenueOrca:    Orca,
}

type raydiumPair struct {
	Name      string              `json:"name"`
	AmmID     string              `json:"ammId"`
	AmmIDAlt  string              `json:"amm_id"`
	TokenA    string              `json:"tokenA"`
	TokenB    string              `json:"tokenB"`
	Liquidity decimal.NullDecimal `json:"liquidity"`
	Price     decimal.NullDecimal `json:"price"`
}

func decodeRaydium(raw json.RawMessage) (domain.Pair, error) {
	var p raydiumPair
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Pair{}, err
	}

	base, quote := p.TokenA, p.TokenB
	if base == "" || quote == "" {
		b, q, ok := domain.SplitPairName(p.Name)
		if !ok {
			return domain.Pair{}, errMissing("tokenA/tokenB")
		}
		base, quote = b, q
	}
	address := p.AmmID
	if address == "" {
		address = p.AmmIDAlt
	}
	return build(base, quote, address, p.Liquidity, p.Price)
}

type orcaPair struct {
	Name      string              `json:"name"`
	Address   string              `json:"address"`
	TokenA    string              `json:"tokenA"`
	TokenB    string              `json:"tokenB"`
	Liquidity decimal.NullDecimal `json:"liquidity"`
	Price     decimal.NullDecimal `json:"price"`
}

func decodeOrca(raw json.RawMessage) (domain.Pair, error) {
	var p orcaPair
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Pair{}, err
	}
	if p.TokenA == "" || p.TokenB == "" {
		return domain.Pair{}, errMissing("tokenA/tokenB")
	}
	return build(p.TokenA, p.TokenB, p.Address, p.Liquidity, p.Price)
}

// build applies the shared rules: price is required and positive, missing
// liquidity counts as zero.
func build(base, quote, address string, liquidity, price decimal.NullDecimal) (domain.Pair, error) {
	if !price.Valid {
		return domain.Pair{}, errMissing("price")
	}
	if !price.Decimal.IsPositive() {
		return domain.Pair{}, errInvalid("price", price.Decimal.String())
	}
	liq := decimal.Zero
	if liquidity.Valid {
		liq = liquidity.Decimal
	}
	if liq.IsNegative() {
		return domain.Pair{}, errInvalid("liquidity", liq.String())
	}
	return domain.Pair{
		Base:      strings.ToUpper(strings.TrimSpace(base)),
		Quote:     strings.ToUpper(strings.TrimSpace(quote)),
		Address:   address,
		Liquidity: liq,
		Price:     price.Decimal,
	}, nil
}
