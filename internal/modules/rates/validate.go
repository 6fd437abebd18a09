// README: Write-side invariant checks for rate sources.
package rates

import (
	"fmt"
	"time"
)

// ValidateFeeTiers enforces at most one adult tier, mandatory non-overlapping child
// buckets with To > From, GuestCount >= 1 and non-negative values.
func ValidateFeeTiers(tiers []GuestFeeTier) error {
	adults := 0
	var buckets []AgeBucket
	for i, t := range tiers {
		if t.GuestCount < 1 {
			return fmt.Errorf("%w: fee tier %d: guest count must be at least 1", ErrInvalid, i)
		}
		if t.Value.IsNegative() {
			return fmt.Errorf("%w: fee tier %d: negative value", ErrInvalid, i)
		}
		if t.AmountType != AmountFlat && t.AmountType != AmountPercent {
			return fmt.Errorf("%w: fee tier %d: unknown amount type %q", ErrInvalid, i, t.AmountType)
		}
		switch t.GuestType {
		case GuestAdult:
			adults++
			if adults > 1 {
				return fmt.Errorf("%w: more than one adult fee tier", ErrInvalid)
			}
		case GuestChild:
			if t.Bucket == nil {
				return fmt.Errorf("%w: fee tier %d: child tier needs an age bucket", ErrInvalid, i)
			}
			if t.Bucket.To <= t.Bucket.From || t.Bucket.From < 0 {
				return fmt.Errorf("%w: fee tier %d: bad age bucket [%d, %d]", ErrInvalid, i, t.Bucket.From, t.Bucket.To)
			}
			for _, b := range buckets {
				if b.Overlaps(*t.Bucket) {
					return fmt.Errorf("%w: fee tier %d: age bucket [%d, %d] overlaps [%d, %d]",
						ErrInvalid, i, t.Bucket.From, t.Bucket.To, b.From, b.To)
				}
			}
			buckets = append(buckets, *t.Bucket)
		default:
			return fmt.Errorf("%w: fee tier %d: unknown guest type %q", ErrInvalid, i, t.GuestType)
		}
	}
	return nil
}

// ValidateDayOverrides requires non-empty day sets that are disjoint across overrides.
func ValidateDayOverrides(overrides []DayOverride) error {
	seen := make(map[time.Weekday]bool)
	for i, o := range overrides {
		if len(o.Days) == 0 {
			return fmt.Errorf("%w: day override %d has no days", ErrInvalid, i)
		}
		if o.Nightly.IsNegative() {
			return fmt.Errorf("%w: day override %d: negative nightly", ErrInvalid, i)
		}
		for _, d := range o.Days {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: day override %d: bad weekday %d", ErrInvalid, i, d)
			}
			if seen[d] {
				return fmt.Errorf("%w: %s appears in more than one day override", ErrInvalid, d)
			}
			seen[d] = true
		}
	}
	return nil
}

func validateStay(minStay int, maxStay *int) error {
	if minStay < 0 {
		return fmt.Errorf("%w: negative min stay", ErrInvalid)
	}
	if maxStay != nil && *maxStay < minStay {
		return fmt.Errorf("%w: max stay %d below min stay %d", ErrInvalid, *maxStay, minStay)
	}
	return nil
}

func ValidateDefaultRate(r UnitDefaultRate) error {
	if r.UnitID.IsZero() {
		return fmt.Errorf("%w: default rate without unit", ErrInvalid)
	}
	if r.Nightly.IsNegative() {
		return fmt.Errorf("%w: negative nightly", ErrInvalid)
	}
	if err := validateStay(r.MinStay, r.MaxStay); err != nil {
		return err
	}
	if err := ValidateDayOverrides(r.Overrides); err != nil {
		return err
	}
	return ValidateFeeTiers(r.Fees)
}

func ValidateRateTable(t RateTable) error {
	if t.RatePlanID.IsZero() {
		return fmt.Errorf("%w: rate table without rate plan", ErrInvalid)
	}
	if t.Terms == nil {
		return fmt.Errorf("%w: rate table without terms", ErrInvalid)
	}
	if t.End.Before(t.Start) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrInvalid, t.End, t.Start)
	}
	switch terms := t.Terms.(type) {
	case StandardTerms:
		if terms.Nightly.IsNegative() {
			return fmt.Errorf("%w: negative nightly", ErrInvalid)
		}
		if err := validateStay(terms.MinStay, terms.MaxStay); err != nil {
			return err
		}
	case DynamicTerms:
		if terms.LowRate.IsNegative() || terms.MaxRate.LessThan(terms.LowRate) {
			return fmt.Errorf("%w: dynamic rates must satisfy 0 <= low <= max", ErrInvalid)
		}
		if terms.LowestOccupancy.IsNegative() || terms.MaxOccupancy.LessThan(terms.LowestOccupancy) {
			return fmt.Errorf("%w: dynamic occupancy bounds must satisfy 0 <= lowest <= max", ErrInvalid)
		}
		if terms.Mode != OccupancyGlobal && terms.Mode != OccupancyUnit {
			return fmt.Errorf("%w: unknown occupancy mode %q", ErrInvalid, terms.Mode)
		}
	}
	if err := ValidateDayOverrides(t.Terms.DayOverrides()); err != nil {
		return err
	}
	return ValidateFeeTiers(t.Terms.FeeTiers())
}
