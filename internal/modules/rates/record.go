// README: Flat persistence records; rows are scanned into these and converted to the variant model.
package rates

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"stayprice/internal/types"
)

type overrideRecord struct {
	Nightly decimal.Decimal `json:"nightly"`
	Days    []int           `json:"days"`
}

type feeRecord struct {
	GuestType  GuestType       `json:"guest_type"`
	FromAge    *int            `json:"from_age,omitempty"`
	ToAge      *int            `json:"to_age,omitempty"`
	GuestCount int             `json:"guest_count"`
	AmountType AmountType      `json:"amount_type"`
	Value      decimal.Decimal `json:"value"`
}

type defaultRecord struct {
	ID        string           `json:"id"`
	UnitID    string           `json:"unit_id"`
	Nightly   decimal.Decimal  `json:"nightly"`
	MinStay   int              `json:"min_stay"`
	MaxStay   *int             `json:"max_stay,omitempty"`
	Overrides []overrideRecord `json:"overrides,omitempty"`
	Fees      []feeRecord      `json:"fees,omitempty"`
}

type planRecord struct {
	ID           string `json:"id"`
	UnitID       string `json:"unit_id"`
	Name         string `json:"name"`
	Enabled      bool   `json:"enabled"`
	SegmentID    string `json:"segment_id,omitempty"`
	SubSegmentID string `json:"sub_segment_id,omitempty"`
}

type tableRecord struct {
	ID              string           `json:"id"`
	RatePlanID      string           `json:"rate_plan_id"`
	Type            RateType         `json:"type"`
	Start           civil.Date       `json:"start"`
	End             civil.Date       `json:"end"`
	Nightly         *decimal.Decimal `json:"nightly,omitempty"`
	MinStay         *int             `json:"min_stay,omitempty"`
	MaxStay         *int             `json:"max_stay,omitempty"`
	LowRate         *decimal.Decimal `json:"low_rate,omitempty"`
	MaxRate         *decimal.Decimal `json:"max_rate,omitempty"`
	LowestOccupancy *decimal.Decimal `json:"lowest_occupancy,omitempty"`
	MaxOccupancy    *decimal.Decimal `json:"max_occupancy,omitempty"`
	Mode            OccupancyMode    `json:"occupancy_mode,omitempty"`
	Overrides       []overrideRecord `json:"overrides,omitempty"`
	Fees            []feeRecord      `json:"fees,omitempty"`
}

func (r overrideRecord) model() DayOverride {
	days := make([]time.Weekday, len(r.Days))
	for i, d := range r.Days {
		days[i] = time.Weekday(d)
	}
	return DayOverride{Nightly: r.Nightly, Days: days}
}

func overrideRecordOf(o DayOverride) overrideRecord {
	days := make([]int, len(o.Days))
	for i, d := range o.Days {
		days[i] = int(d)
	}
	return overrideRecord{Nightly: o.Nightly, Days: days}
}

func (r feeRecord) model() GuestFeeTier {
	t := GuestFeeTier{
		GuestType:  r.GuestType,
		GuestCount: r.GuestCount,
		AmountType: r.AmountType,
		Value:      r.Value,
	}
	if r.FromAge != nil && r.ToAge != nil {
		t.Bucket = &AgeBucket{From: *r.FromAge, To: *r.ToAge}
	}
	return t
}

func feeRecordOf(t GuestFeeTier) feeRecord {
	r := feeRecord{
		GuestType:  t.GuestType,
		GuestCount: t.GuestCount,
		AmountType: t.AmountType,
		Value:      t.Value,
	}
	if t.Bucket != nil {
		from, to := t.Bucket.From, t.Bucket.To
		r.FromAge, r.ToAge = &from, &to
	}
	return r
}

func overridesOf(recs []overrideRecord) []DayOverride {
	if len(recs) == 0 {
		return nil
	}
	out := make([]DayOverride, len(recs))
	for i, r := range recs {
		out[i] = r.model()
	}
	return out
}

func feesOf(recs []feeRecord) []GuestFeeTier {
	if len(recs) == 0 {
		return nil
	}
	out := make([]GuestFeeTier, len(recs))
	for i, r := range recs {
		out[i] = r.model()
	}
	return out
}

func overrideRecordsOf(os []DayOverride) []overrideRecord {
	out := make([]overrideRecord, len(os))
	for i, o := range os {
		out[i] = overrideRecordOf(o)
	}
	return out
}

func feeRecordsOf(ts []GuestFeeTier) []feeRecord {
	out := make([]feeRecord, len(ts))
	for i, t := range ts {
		out[i] = feeRecordOf(t)
	}
	return out
}

func (r defaultRecord) model() UnitDefaultRate {
	return UnitDefaultRate{
		ID:        types.ID(r.ID),
		UnitID:    types.ID(r.UnitID),
		Nightly:   r.Nightly,
		MinStay:   r.MinStay,
		MaxStay:   r.MaxStay,
		Overrides: overridesOf(r.Overrides),
		Fees:      feesOf(r.Fees),
	}
}

func defaultRecordOf(d UnitDefaultRate) defaultRecord {
	return defaultRecord{
		ID:        string(d.ID),
		UnitID:    string(d.UnitID),
		Nightly:   d.Nightly,
		MinStay:   d.MinStay,
		MaxStay:   d.MaxStay,
		Overrides: overrideRecordsOf(d.Overrides),
		Fees:      feeRecordsOf(d.Fees),
	}
}

func (r planRecord) model() RatePlan {
	return RatePlan{
		ID:           types.ID(r.ID),
		UnitID:       types.ID(r.UnitID),
		Name:         r.Name,
		Enabled:      r.Enabled,
		SegmentID:    types.ID(r.SegmentID),
		SubSegmentID: types.ID(r.SubSegmentID),
	}
}

func planRecordOf(p RatePlan) planRecord {
	return planRecord{
		ID:           string(p.ID),
		UnitID:       string(p.UnitID),
		Name:         p.Name,
		Enabled:      p.Enabled,
		SegmentID:    string(p.SegmentID),
		SubSegmentID: string(p.SubSegmentID),
	}
}

// model converts the record into a RateTable, rejecting rows whose variant columns are missing.
func (r tableRecord) model() (RateTable, error) {
	t := RateTable{
		ID:         types.ID(r.ID),
		RatePlanID: types.ID(r.RatePlanID),
		Start:      r.Start,
		End:        r.End,
	}
	switch r.Type {
	case RateStandard:
		if r.Nightly == nil {
			return RateTable{}, fmt.Errorf("%w: standard rate table %s has no nightly amount", ErrInvalid, r.ID)
		}
		terms := StandardTerms{
			Nightly:   *r.Nightly,
			MaxStay:   r.MaxStay,
			Overrides: overridesOf(r.Overrides),
			Fees:      feesOf(r.Fees),
		}
		if r.MinStay != nil {
			terms.MinStay = *r.MinStay
		}
		t.Terms = terms
	case RateDynamic:
		if r.LowRate == nil || r.MaxRate == nil || r.LowestOccupancy == nil || r.MaxOccupancy == nil {
			return RateTable{}, fmt.Errorf("%w: dynamic rate table %s has incomplete bounds", ErrInvalid, r.ID)
		}
		mode := r.Mode
		if mode == "" {
			mode = OccupancyGlobal
		}
		t.Terms = DynamicTerms{
			LowRate:         *r.LowRate,
			MaxRate:         *r.MaxRate,
			LowestOccupancy: *r.LowestOccupancy,
			MaxOccupancy:    *r.MaxOccupancy,
			Mode:            mode,
			Overrides:       overridesOf(r.Overrides),
			Fees:            feesOf(r.Fees),
		}
	default:
		return RateTable{}, fmt.Errorf("%w: rate table %s has unknown type %q", ErrInvalid, r.ID, r.Type)
	}
	return t, nil
}

func tableRecordOf(t RateTable) tableRecord {
	r := tableRecord{
		ID:         string(t.ID),
		RatePlanID: string(t.RatePlanID),
		Type:       t.Type(),
		Start:      t.Start,
		End:        t.End,
		Overrides:  overrideRecordsOf(t.Terms.DayOverrides()),
		Fees:       feeRecordsOf(t.Terms.FeeTiers()),
	}
	switch terms := t.Terms.(type) {
	case StandardTerms:
		nightly, minStay := terms.Nightly, terms.MinStay
		r.Nightly, r.MinStay, r.MaxStay = &nightly, &minStay, terms.MaxStay
	case DynamicTerms:
		low, high := terms.LowRate, terms.MaxRate
		lowest, highest := terms.LowestOccupancy, terms.MaxOccupancy
		r.LowRate, r.MaxRate = &low, &high
		r.LowestOccupancy, r.MaxOccupancy = &lowest, &highest
		r.Mode = terms.Mode
	}
	return r
}
