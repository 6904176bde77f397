package presenter

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatPercent renders a signed fraction as a percentage with two decimals,
// 0.0532 -> "5.32%".
func FormatPercent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(hundred).StringFixed(2) + "%"
}

// FormatMoney renders amount with the currency symbol, thousands separators and
// the given number of decimals (0 or 2). The sign follows the symbol: "£-20.25".
// A negative amount keeps its sign even when it rounds to zero, "£-0.00".
// amount must be finite.
func FormatMoney(symbol string, amount float64, decimals int) string {
	fixed := decimal.NewFromFloat(amount).Abs().StringFixed(int32(decimals))
	whole, frac, _ := strings.Cut(fixed, ".")

	text := humanize.BigComma(decimal.RequireFromString(whole).BigInt())
	if frac != "" {
		text += "." + frac
	}
	if amount < 0 {
		return symbol + "-" + text
	}
	return symbol + text
}

// FormatRatio renders a ratio with two decimals, 1.8 -> "1.80".
func FormatRatio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// GaugeValue scales a win fraction to the 0..100 range of the gauge widget.
func GaugeValue(winFraction float64) float64 {
	v := decimal.NewFromFloat(winFraction).Mul(hundred).InexactFloat64()
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
