// README: Immutable rate table query filter and its builder.
package rates

import (
	"cloud.google.com/go/civil"

	"stayprice/internal/types"
)

// TableFilter selects rate tables of one plan. Builder methods return modified copies,
// so a filter can be shared and extended safely.
type TableFilter struct {
	RatePlanID types.ID
	Type       RateType // empty means any type
	covering   *civil.Date
	from, to   *civil.Date // stay range [from, to)
}

func NewTableFilter(planID types.ID) TableFilter {
	return TableFilter{RatePlanID: planID}
}

func (f TableFilter) OfType(t RateType) TableFilter {
	f.Type = t
	return f
}

// Covering keeps tables with start <= d <= end.
func (f TableFilter) Covering(d civil.Date) TableFilter {
	f.covering = &d
	return f
}

// Overlapping keeps tables pricing any night of [from, to).
func (f TableFilter) Overlapping(from, to civil.Date) TableFilter {
	f.from, f.to = &from, &to
	return f
}

func (f TableFilter) CoveringDate() (civil.Date, bool) {
	if f.covering == nil {
		return civil.Date{}, false
	}
	return *f.covering, true
}

func (f TableFilter) StayRange() (civil.Date, civil.Date, bool) {
	if f.from == nil || f.to == nil {
		return civil.Date{}, civil.Date{}, false
	}
	return *f.from, *f.to, true
}

// Match applies the filter to an in-memory table.
func (f TableFilter) Match(t RateTable) bool {
	if t.RatePlanID != f.RatePlanID {
		return false
	}
	if f.Type != "" && t.Type() != f.Type {
		return false
	}
	if d, ok := f.CoveringDate(); ok && !t.Covers(d) {
		return false
	}
	if from, to, ok := f.StayRange(); ok && !t.OverlapsStay(from, to) {
		return false
	}
	return true
}
