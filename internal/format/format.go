// Package format renders report numbers and maps report values onto the
// dashboard colour vocabulary.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is rendered wherever a value is absent.
const Placeholder = "-"

// CurrencySymbol prefixes every monetary amount.
const CurrencySymbol = "₹"

var printer = message.NewPrinter(language.English)

func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Fixed renders v with the given number of decimals. Nil renders the placeholder.
func Fixed(v *float64, places int32) string {
	if !usable(v) {
		return Placeholder
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

// Currency renders an amount as rupees with two decimals.
func Currency(v *float64) string {
	if !usable(v) {
		return Placeholder
	}
	amount := decimal.NewFromFloat(*v)
	if amount.IsNegative() {
		return "-" + CurrencySymbol + amount.Abs().StringFixed(2)
	}
	return CurrencySymbol + amount.StringFixed(2)
}

// CurrencyOf is Currency for a plain value.
func CurrencyOf(v float64) string {
	return Currency(&v)
}

// Percent renders v with the given decimals followed by a percent sign.
func Percent(v *float64, places int32) string {
	if !usable(v) {
		return Placeholder
	}
	return Fixed(v, places) + "%"
}

// PercentOf is Percent for a plain value.
func PercentOf(v float64, places int32) string {
	return Percent(&v, places)
}

// Signed renders v with an explicit sign for non-negative values.
func Signed(v *float64, places int32) string {
	if !usable(v) {
		return Placeholder
	}
	out := Fixed(v, places)
	if *v >= 0 && !strings.HasPrefix(out, "-") {
		return "+" + out
	}
	return out
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Sum adds the given values as decimals to avoid float drift in totals.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return f
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := decimal.NewFromFloat(Sum(values...))
	f, _ := total.Div(decimal.NewFromInt(int64(len(values)))).Float64()
	return f
}
