package tools

import (
	"github.com/shopspring/decimal"
)

// RoundMoney rounds a monetary figure to the given number of decimal
// places through decimal arithmetic, avoiding float64 artifacts like
// 1087.0000000000002 in API payloads.
func RoundMoney(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundCents is RoundMoney at 2 places, the display precision everywhere.
func RoundCents(v float64) float64 {
	return RoundMoney(v, 2)
}
