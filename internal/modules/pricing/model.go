// README: Stay pricing request, resolved source and per-unit result types.
package pricing

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

type ChildGroup struct {
	Age      int
	Quantity int
}

// Guests is the party staying in each unit.
type Guests struct {
	Adults   int
	Children []ChildGroup
}

func (g Guests) ChildCount() int {
	n := 0
	for _, c := range g.Children {
		n += c.Quantity
	}
	return n
}

func (g Guests) Total() int { return g.Adults + g.ChildCount() }

type UnitRequest struct {
	UnitID    types.ID
	Occupancy *decimal.Decimal // used by UNIT-mode dynamic tables
}

// StayRequest prices every unit for the nights of [Checkin, Checkout).
type StayRequest struct {
	Checkin         civil.Date
	Checkout        civil.Date
	Guests          Guests
	Segment         rates.Segment
	Units           []UnitRequest
	GlobalOccupancy *decimal.Decimal // used by GLOBAL-mode dynamic tables
}

// NightRequest prices a single night of one unit.
type NightRequest struct {
	UnitID          types.ID
	Date            civil.Date
	Guests          Guests
	Segment         rates.Segment
	Occupancy       *decimal.Decimal
	GlobalOccupancy *decimal.Decimal
}

type SourceKind string

const (
	SourceDynamic  SourceKind = "dynamic"
	SourceStandard SourceKind = "standard"
	SourceDefault  SourceKind = "default"
	SourceNone     SourceKind = "none"
)

// Source is the single record that prices a night: its base inputs and its fee tiers
// always come from the same place.
type Source struct {
	Kind       SourceKind
	ID         types.ID
	RatePlanID types.ID
	Nightly    decimal.Decimal
	Dynamic    *rates.DynamicTerms
	Overrides  []rates.DayOverride
	Fees       []rates.GuestFeeTier
	MinStay    *int
	MaxStay    *int
}

func (s Source) Priced() bool { return s.Kind != SourceNone }

func sourceFromTable(t rates.RateTable) Source {
	src := Source{
		ID:         t.ID,
		RatePlanID: t.RatePlanID,
		Overrides:  t.Terms.DayOverrides(),
		Fees:       t.Terms.FeeTiers(),
	}
	switch terms := t.Terms.(type) {
	case rates.StandardTerms:
		minStay := terms.MinStay
		src.Kind = SourceStandard
		src.Nightly = terms.Nightly
		src.MinStay, src.MaxStay = &minStay, terms.MaxStay
	case rates.DynamicTerms:
		src.Kind = SourceDynamic
		src.Dynamic = &terms
	}
	return src
}

func sourceFromDefault(d rates.UnitDefaultRate) Source {
	minStay := d.MinStay
	return Source{
		Kind:      SourceDefault,
		ID:        d.ID,
		Nightly:   d.Nightly,
		Overrides: d.Overrides,
		Fees:      d.Fees,
		MinStay:   &minStay,
		MaxStay:   d.MaxStay,
	}
}

// NightPrice is the priced breakdown of one night.
type NightPrice struct {
	Date     civil.Date
	Source   SourceKind
	SourceID types.ID
	Base     decimal.Decimal
	AdultFee decimal.Decimal
	ChildFee decimal.Decimal
	Total    decimal.Decimal
}

type UnitResult struct {
	UnitID             types.ID
	Nights             []NightPrice
	NightlyPriceByDate map[civil.Date]decimal.Decimal
	TotalPrice         decimal.Decimal
	AveragePrice       decimal.Decimal
	MinStay            *int
	MaxStay            *int
	// Degraded is set when pricing the unit failed and every night was zeroed.
	Degraded bool
}

// Quote holds one result per requested unit, in request order.
type Quote struct {
	Checkin  civil.Date
	Checkout civil.Date
	Nights   int
	Units    []UnitResult
}

func (q Quote) ByUnit() map[types.ID]UnitResult {
	out := make(map[types.ID]UnitResult, len(q.Units))
	for _, u := range q.Units {
		out[u.UnitID] = u
	}
	return out
}
