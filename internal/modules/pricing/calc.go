// README: Nightly base amount: day-of-week overrides and occupancy interpolation.
package pricing

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

// matchOverride returns the first override containing the weekday of d and how many matched.
func matchOverride(d civil.Date, overrides []rates.DayOverride) (rates.DayOverride, int) {
	day := types.Weekday(d)
	var (
		first rates.DayOverride
		n     int
	)
	for _, o := range overrides {
		if o.Matches(day) {
			if n == 0 {
				first = o
			}
			n++
		}
	}
	return first, n
}

// BaseNightly applies a matching day override to nightly. An override only ever raises the
// amount. The count is the number of overrides that matched; above one is an anomaly and
// the first one wins.
func BaseNightly(d civil.Date, nightly decimal.Decimal, overrides []rates.DayOverride) (decimal.Decimal, int) {
	o, n := matchOverride(d, overrides)
	if n == 0 {
		return nightly, 0
	}
	return decimal.Max(nightly, o.Nightly), n
}

// Interpolate maps occupancy onto [LowRate, MaxRate]. The fraction is occupancy/MaxOccupancy
// rather than the span above LowestOccupancy; stored quotes depend on this exact curve.
func Interpolate(t rates.DynamicTerms, occupancy decimal.Decimal) decimal.Decimal {
	switch {
	case occupancy.LessThan(t.LowestOccupancy):
		return t.LowRate
	case occupancy.GreaterThan(t.MaxOccupancy):
		return t.MaxRate
	case !t.MaxOccupancy.IsPositive():
		return t.LowRate
	}
	span := t.MaxRate.Sub(t.LowRate)
	return types.RoundMoney(t.LowRate.Add(span.Mul(occupancy).Div(t.MaxOccupancy)))
}

// nightBase computes the base amount of a night for any source kind. For dynamic sources a
// matching override replaces interpolation.
func nightBase(src Source, d civil.Date, occupancy decimal.Decimal) (decimal.Decimal, int) {
	if src.Dynamic == nil {
		return BaseNightly(d, src.Nightly, src.Overrides)
	}
	if _, n := matchOverride(d, src.Overrides); n > 0 {
		return BaseNightly(d, decimal.Zero, src.Overrides)
	}
	return Interpolate(*src.Dynamic, occupancy), 0
}

// occupancyFor picks the figure a dynamic source interpolates on. Missing values count as zero.
func occupancyFor(src Source, unit, global *decimal.Decimal) decimal.Decimal {
	if src.Dynamic == nil {
		return decimal.Zero
	}
	v := global
	if src.Dynamic.Mode == rates.OccupancyUnit {
		v = unit
	}
	if v == nil {
		return decimal.Zero
	}
	return *v
}
