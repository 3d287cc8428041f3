package graph

import (
	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimal places of the native unit (satoshi).
const NativeDecimals = 8

// Rate is one row of the exchange rate table: fiat price of one coin at a height.
type Rate struct {
	Height uint64  `ch:"height" json:"height"`
	EUR    float64 `ch:"eur" json:"eur"`
	USD    float64 `ch:"usd" json:"usd"`
}

// Value is a native amount together with its fiat conversions at one height.
type Value struct {
	Value int64   `json:"value"`
	EUR   float64 `json:"eur"`
	USD   float64 `json:"usd"`
}

// NewValue converts amount (in native units) with the given rate. Fiat values are
// rounded to cents.
func NewValue(amount int64, rate Rate) Value {
	coins := decimal.New(amount, -NativeDecimals)
	return Value{
		Value: amount,
		EUR:   toFiat(coins, rate.EUR),
		USD:   toFiat(coins, rate.USD),
	}
}

func toFiat(coins decimal.Decimal, price float64) float64 {
	f, _ := coins.Mul(decimal.NewFromFloat(price)).Round(2).Float64()
	return f
}
