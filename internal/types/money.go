// README: Money helpers over exact decimals; all prices are rounded to cents half-up.
package types

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept on every monetary result.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to cents. decimal.Round rounds half away from zero, which is
// half-up for the non-negative amounts the engine produces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Percent returns base * pct / 100 without rounding.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// FormatMoney renders an amount with exactly two decimals, e.g. "120.00".
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}
