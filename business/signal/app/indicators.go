package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-scanner/business/signal/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

// WMA computes the weighted moving average over the last period prices, the
// oldest sample weighted 1 and the newest weighted period. With fewer samples
// than period the policy decides between a partial window and an error.
func WMA(prices []decimal.Decimal, period int, policy domain.ShortHistoryPolicy) (decimal.Decimal, error) {
	if period < 1 {
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput, apperror.WithContextf("wma period %d", period))
	}
	if len(prices) == 0 {
		return decimal.Zero, insufficient("wma", 0, period)
	}
	if len(prices) < period && policy == domain.ShortHistoryStrict {
		return decimal.Zero, insufficient("wma", len(prices), period)
	}

	window := prices
	if len(window) > period {
		window = window[len(window)-period:]
	}

	sum := decimal.Zero
	weights := decimal.Zero
	for i, p := range window {
		w := decimal.NewFromInt(int64(i + 1))
		sum = sum.Add(p.Mul(w))
		weights = weights.Add(w)
	}
	return sum.Div(weights), nil
}

// RSI computes the relative strength index over the first period prices.
// Gains and losses are averaged over period; a zero average loss yields 100.
func RSI(prices []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period < 2 {
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput, apperror.WithContextf("rsi period %d", period))
	}
	if len(prices) < period {
		return decimal.Zero, insufficient("rsi", len(prices), period)
	}

	gains := decimal.Zero
	losses := decimal.Zero
	for i := 1; i < period; i++ {
		delta := prices[i].Sub(prices[i-1])
		if delta.IsPositive() {
			gains = gains.Add(delta)
		} else {
			losses = losses.Sub(delta)
		}
	}

	n := decimal.NewFromInt(int64(period))
	avgGain := gains.Div(n)
	avgLoss := losses.Div(n)
	if avgLoss.IsZero() {
		return hundred, nil
	}

	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs))), nil
}

func insufficient(indicator string, have, want int) error {
	return apperror.New(apperror.CodeInsufficientData, apperror.WithContextf("%s: %d of %d samples", indicator, have, want))
}
