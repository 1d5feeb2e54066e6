package analytics

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to cents, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Average divides total by n, returning 0 when n is 0.
func Average(total float64, n int64) float64 {
	if n == 0 {
		return 0
	}

	return decimal.NewFromFloat(total).Div(decimal.NewFromInt(n)).InexactFloat64()
}
