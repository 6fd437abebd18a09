// README: Additional-guest fees charged on top of the nightly base.
package pricing

import (
	"github.com/shopspring/decimal"

	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

type FeeBreakdown struct {
	Adult decimal.Decimal
	Child decimal.Decimal
}

func (f FeeBreakdown) Total() decimal.Decimal { return f.Adult.Add(f.Child) }

// GuestFee charges the tiers for every guest beyond the first one, who is covered by
// base. Adults are absorbed before children. With no adults one child is absorbed; the
// party is an unordered pool, so the child whose removal yields the lowest fee is taken.
func GuestFee(base decimal.Decimal, g Guests, tiers []rates.GuestFeeTier) FeeBreakdown {
	if g.Adults >= 1 {
		return FeeBreakdown{
			Adult: adultFee(base, g.Adults-1, tiers),
			Child: childFee(base, g.Children, tiers),
		}
	}
	var (
		best  decimal.Decimal
		found bool
	)
	for i, c := range g.Children {
		if c.Quantity < 1 {
			continue
		}
		rest := make([]ChildGroup, len(g.Children))
		copy(rest, g.Children)
		rest[i].Quantity--
		fee := childFee(base, rest, tiers)
		if !found || fee.LessThan(best) {
			best, found = fee, true
		}
	}
	return FeeBreakdown{Adult: decimal.Zero, Child: best}
}

func adultFee(base decimal.Decimal, additional int, tiers []rates.GuestFeeTier) decimal.Decimal {
	for _, t := range tiers {
		if t.GuestType == rates.GuestAdult {
			return tierFee(base, additional, t)
		}
	}
	return decimal.Zero
}

func childFee(base decimal.Decimal, children []ChildGroup, tiers []rates.GuestFeeTier) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tiers {
		if t.GuestType != rates.GuestChild || t.Bucket == nil {
			continue
		}
		n := 0
		for _, c := range children {
			if t.Bucket.Contains(c.Age) {
				n += c.Quantity
			}
		}
		total = total.Add(tierFee(base, n, t))
	}
	return total
}

// tierFee charges the guests past the tier's free threshold of GuestCount-1.
func tierFee(base decimal.Decimal, guests int, t rates.GuestFeeTier) decimal.Decimal {
	chargeable := guests - (t.GuestCount - 1)
	if chargeable <= 0 {
		return decimal.Zero
	}
	each := t.Value
	if t.AmountType == rates.AmountPercent {
		each = types.Percent(base, t.Value)
	}
	return types.RoundMoney(each.Mul(decimal.NewFromInt(int64(chargeable))))
}
