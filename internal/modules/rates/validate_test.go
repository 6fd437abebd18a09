package rates

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func childTier(from, to, count int, value int64) GuestFeeTier {
	return GuestFeeTier{
		GuestType:  GuestChild,
		Bucket:     &AgeBucket{From: from, To: to},
		GuestCount: count,
		AmountType: AmountFlat,
		Value:      decimal.NewFromInt(value),
	}
}

func adultTier(count int, value int64) GuestFeeTier {
	return GuestFeeTier{GuestType: GuestAdult, GuestCount: count, AmountType: AmountFlat, Value: decimal.NewFromInt(value)}
}

func TestValidateFeeTiers(t *testing.T) {
	cases := []struct {
		name  string
		tiers []GuestFeeTier
		ok    bool
	}{
		{"empty", nil, true},
		{"adult and disjoint children", []GuestFeeTier{adultTier(2, 20), childTier(0, 5, 1, 5), childTier(6, 12, 1, 10)}, true},
		{"two adult tiers", []GuestFeeTier{adultTier(2, 20), adultTier(3, 10)}, false},
		{"child without bucket", []GuestFeeTier{{GuestType: GuestChild, GuestCount: 1, AmountType: AmountFlat}}, false},
		{"bucket to equals from", []GuestFeeTier{childTier(5, 5, 1, 5)}, false},
		{"overlapping buckets", []GuestFeeTier{childTier(0, 6, 1, 5), childTier(6, 12, 1, 10)}, false},
		{"zero guest count", []GuestFeeTier{adultTier(0, 20)}, false},
		{"negative value", []GuestFeeTier{adultTier(1, -1)}, false},
		{"unknown amount type", []GuestFeeTier{{GuestType: GuestAdult, GuestCount: 1, AmountType: "tax"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFeeTiers(tc.tiers)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateDayOverrides(t *testing.T) {
	weekend := DayOverride{Nightly: decimal.NewFromInt(150), Days: []time.Weekday{time.Friday, time.Saturday}}
	monday := DayOverride{Nightly: decimal.NewFromInt(90), Days: []time.Weekday{time.Monday}}

	if err := ValidateDayOverrides([]DayOverride{weekend, monday}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shared := DayOverride{Nightly: decimal.NewFromInt(130), Days: []time.Weekday{time.Saturday}}
	if err := ValidateDayOverrides([]DayOverride{weekend, shared}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for shared weekday, got %v", err)
	}
	if err := ValidateDayOverrides([]DayOverride{{Nightly: decimal.NewFromInt(1)}}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty day set, got %v", err)
	}
}

func TestValidateRateTable(t *testing.T) {
	maxStay := 3
	cases := []struct {
		name  string
		table RateTable
		ok    bool
	}{
		{"standard", standardTable("t", "p", day(2026, 6, 1), day(2026, 6, 1), 100), true},
		{"dynamic", dynamicTable("t", "p", day(2026, 6, 1), day(2026, 6, 30)), true},
		{"end before start", standardTable("t", "p", day(2026, 6, 2), day(2026, 6, 1), 100), false},
		{"no plan", standardTable("t", "", day(2026, 6, 1), day(2026, 6, 2), 100), false},
		{"max below min", RateTable{
			RatePlanID: "p", Start: day(2026, 6, 1), End: day(2026, 6, 2),
			Terms: StandardTerms{Nightly: decimal.NewFromInt(100), MinStay: 5, MaxStay: &maxStay},
		}, false},
		{"max rate below low rate", RateTable{
			RatePlanID: "p", Start: day(2026, 6, 1), End: day(2026, 6, 2),
			Terms: DynamicTerms{
				LowRate: decimal.NewFromInt(200), MaxRate: decimal.NewFromInt(100),
				MaxOccupancy: decimal.NewFromInt(90), Mode: OccupancyGlobal,
			},
		}, false},
		{"unknown mode", RateTable{
			RatePlanID: "p", Start: day(2026, 6, 1), End: day(2026, 6, 2),
			Terms: DynamicTerms{LowRate: decimal.NewFromInt(1), MaxRate: decimal.NewFromInt(2), MaxOccupancy: decimal.NewFromInt(1), Mode: "regional"},
		}, false},
		{"no terms", RateTable{RatePlanID: "p", Start: day(2026, 6, 1), End: day(2026, 6, 2)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRateTable(tc.table)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateDefaultRate(t *testing.T) {
	r := UnitDefaultRate{UnitID: "u1", Nightly: decimal.NewFromInt(100), MinStay: 1, Fees: []GuestFeeTier{adultTier(2, 15)}}
	if err := ValidateDefaultRate(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.UnitID = ""
	if err := ValidateDefaultRate(r); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid without unit, got %v", err)
	}
}

func TestTableRecordRejectsIncompleteVariant(t *testing.T) {
	low := decimal.NewFromInt(80)
	rec := tableRecord{ID: "t", RatePlanID: "p", Type: RateDynamic, LowRate: &low}
	if _, err := rec.model(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for partial dynamic row, got %v", err)
	}
	rec = tableRecord{ID: "t", RatePlanID: "p", Type: RateStandard}
	if _, err := rec.model(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for standard row without nightly, got %v", err)
	}
}

func TestTableRecordKeepsVariant(t *testing.T) {
	src := dynamicTable("d1", "p1", day(2026, 6, 1), day(2026, 6, 30))
	src.Terms = DynamicTerms{
		LowRate:         decimal.NewFromInt(80),
		MaxRate:         decimal.NewFromInt(200),
		LowestOccupancy: decimal.NewFromInt(20),
		MaxOccupancy:    decimal.NewFromInt(90),
		Mode:            OccupancyUnit,
		Fees:            []GuestFeeTier{childTier(0, 5, 1, 10)},
	}

	got, err := tableRecordOf(src).model()
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	terms, ok := got.Terms.(DynamicTerms)
	if !ok {
		t.Fatalf("expected DynamicTerms, got %T", got.Terms)
	}
	if terms.Mode != OccupancyUnit || !terms.MaxRate.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("dynamic terms not preserved: %+v", terms)
	}
	if len(terms.Fees) != 1 || terms.Fees[0].Bucket == nil || terms.Fees[0].Bucket.To != 5 {
		t.Fatalf("child bucket not preserved: %+v", terms.Fees)
	}
}
