package app

import (
	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
)

// IsLiquid reports whether the pair's liquidity reaches the floor.
func IsLiquid(pair marketDomain.Pair, t domain.Thresholds) bool {
	return pair.Liquidity.GreaterThanOrEqual(t.MinLiquidity)
}

// FilterLiquid splits pairs into liquid and illiquid, keeping order.
func FilterLiquid(pairs []marketDomain.Pair, t domain.Thresholds) (liquid, illiquid []marketDomain.Pair) {
	for _, p := range pairs {
		if IsLiquid(p, t) {
			liquid = append(liquid, p)
		} else {
			illiquid = append(illiquid, p)
		}
	}
	return liquid, illiquid
}
