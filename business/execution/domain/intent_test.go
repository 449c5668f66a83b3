package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		price    string
		slippage string
		want     string
	}{
		{name: "one percent", amount: "1", price: "150", slippage: "0.01", want: "148.5"},
		{name: "no slippage", amount: "2", price: "10", slippage: "0", want: "20"},
		{name: "fractional amount", amount: "0.25", price: "148.2", slippage: "0.01", want: "36.6795"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinAmountOut(
				decimal.RequireFromString(tt.amount),
				decimal.RequireFromString(tt.price),
				decimal.RequireFromString(tt.slippage),
			)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MinAmountOut() = %s, want %s", got, tt.want)
			}
		})
	}
}
