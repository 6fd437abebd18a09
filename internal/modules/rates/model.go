// README: Rate data model: default rates, rate plans, date-scoped rate tables and their fee tiers.
package rates

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"stayprice/internal/types"
)

type RateType string

const (
	RateStandard RateType = "standard"
	RateDynamic  RateType = "dynamic"
)

func (t RateType) Valid() bool { return t == RateStandard || t == RateDynamic }

type GuestType string

const (
	GuestAdult GuestType = "adult"
	GuestChild GuestType = "child"
)

type AmountType string

const (
	AmountFlat    AmountType = "flat"
	AmountPercent AmountType = "percent"
)

type OccupancyMode string

const (
	OccupancyGlobal OccupancyMode = "global"
	OccupancyUnit   OccupancyMode = "unit"
)

// DayOverride replaces the nightly amount on the listed days of week when it is higher.
type DayOverride struct {
	Nightly decimal.Decimal
	Days    []time.Weekday
}

func (o DayOverride) Matches(day time.Weekday) bool {
	for _, d := range o.Days {
		if d == day {
			return true
		}
	}
	return false
}

// AgeBucket is an inclusive [From, To] age range.
type AgeBucket struct {
	From int
	To   int
}

func (b AgeBucket) Contains(age int) bool { return age >= b.From && age <= b.To }

func (b AgeBucket) Overlaps(o AgeBucket) bool { return b.From <= o.To && b.To >= o.From }

// GuestFeeTier charges Value (flat or percent of the night's base) for each guest
// of its type or bucket beyond the first GuestCount-1 of them.
type GuestFeeTier struct {
	GuestType  GuestType
	Bucket     *AgeBucket // set only for children
	GuestCount int
	AmountType AmountType
	Value      decimal.Decimal
}

// UnitDefaultRate is the fallback pricing record of a unit.
type UnitDefaultRate struct {
	ID        types.ID
	UnitID    types.ID
	Nightly   decimal.Decimal
	MinStay   int
	MaxStay   *int
	Overrides []DayOverride
	Fees      []GuestFeeTier
}

// RatePlan is a segment-scoped pricing policy for one unit.
type RatePlan struct {
	ID           types.ID
	UnitID       types.ID
	Name         string
	Enabled      bool
	SegmentID    types.ID
	SubSegmentID types.ID
}

// Terms is the variant part of a rate table; it is either StandardTerms or DynamicTerms.
type Terms interface {
	Type() RateType
	DayOverrides() []DayOverride
	FeeTiers() []GuestFeeTier
	sealed()
}

type StandardTerms struct {
	Nightly   decimal.Decimal
	MinStay   int
	MaxStay   *int
	Overrides []DayOverride
	Fees      []GuestFeeTier
}

func (StandardTerms) Type() RateType { return RateStandard }
func (t StandardTerms) DayOverrides() []DayOverride { return t.Overrides }
func (t StandardTerms) FeeTiers() []GuestFeeTier { return t.Fees }
func (StandardTerms) sealed() {}

// DynamicTerms interpolates the nightly amount between LowRate and MaxRate by occupancy.
type DynamicTerms struct {
	LowRate         decimal.Decimal
	MaxRate         decimal.Decimal
	LowestOccupancy decimal.Decimal
	MaxOccupancy    decimal.Decimal
	Mode            OccupancyMode
	Overrides       []DayOverride
	Fees            []GuestFeeTier
}

func (DynamicTerms) Type() RateType { return RateDynamic }
func (t DynamicTerms) DayOverrides() []DayOverride { return t.Overrides }
func (t DynamicTerms) FeeTiers() []GuestFeeTier { return t.Fees }
func (DynamicTerms) sealed() {}

// RateTable prices the nights of [Start, End] (both inclusive) for a rate plan.
type RateTable struct {
	ID         types.ID
	RatePlanID types.ID
	Start      civil.Date
	End        civil.Date
	Terms      Terms
}

func (t RateTable) Type() RateType { return t.Terms.Type() }

func (t RateTable) Covers(d civil.Date) bool { return types.DateInRange(d, t.Start, t.End) }

// OverlapsTable uses the closed-interval test a.start <= b.end && a.end >= b.start.
func (t RateTable) OverlapsTable(o RateTable) bool {
	return !t.Start.After(o.End) && !t.End.Before(o.Start)
}

// OverlapsStay reports whether the table prices any night of [checkin, checkout).
func (t RateTable) OverlapsStay(checkin, checkout civil.Date) bool {
	return t.Start.Before(checkout) && !t.End.Before(checkin)
}

// Segment selects which rate plan applies. Both fields empty means "no segment".
type Segment struct {
	SegmentID    types.ID
	SubSegmentID types.ID
}

// Effective is the sub-segment when given, else the segment, else empty.
func (s Segment) Effective() types.ID {
	if !s.SubSegmentID.IsZero() {
		return s.SubSegmentID
	}
	return s.SegmentID
}
