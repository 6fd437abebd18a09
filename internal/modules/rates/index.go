// README: Interval index answering coverage and overlap questions per rate plan and type.
package rates

import (
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"stayprice/internal/types"
)

type indexKey struct {
	plan types.ID
	kind RateType
}

// Index holds rate tables grouped by plan and type, each group sorted by start date.
// It is read-only after construction.
type Index struct {
	groups map[indexKey][]RateTable
	plans  map[types.ID][]RateTable
}

func NewIndex(tables []RateTable) *Index {
	ix := &Index{
		groups: make(map[indexKey][]RateTable),
		plans:  make(map[types.ID][]RateTable),
	}
	for _, t := range tables {
		k := indexKey{plan: t.RatePlanID, kind: t.Type()}
		ix.groups[k] = append(ix.groups[k], t)
		ix.plans[t.RatePlanID] = append(ix.plans[t.RatePlanID], t)
	}
	for k := range ix.groups {
		slices.SortFunc(ix.groups[k], byStart)
	}
	for k := range ix.plans {
		slices.SortFunc(ix.plans[k], byStart)
	}
	return ix
}

func byStart(a, b RateTable) int {
	switch {
	case a.Start.Before(b.Start):
		return -1
	case a.Start.After(b.Start):
		return 1
	}
	return strings.Compare(string(a.ID), string(b.ID))
}

// Covering returns the earliest-starting table of the given type covering d and the
// number of tables that cover it. A count above one is a data-integrity anomaly.
func (ix *Index) Covering(planID types.ID, kind RateType, d civil.Date) (RateTable, int) {
	var (
		first RateTable
		n     int
	)
	for _, t := range ix.groups[indexKey{plan: planID, kind: kind}] {
		if t.Start.After(d) {
			break
		}
		if t.Covers(d) {
			if n == 0 {
				first = t
			}
			n++
		}
	}
	return first, n
}

// Overlapping returns the tables of the given type that price any night of [from, to).
func (ix *Index) Overlapping(planID types.ID, kind RateType, from, to civil.Date) []RateTable {
	var out []RateTable
	for _, t := range ix.groups[indexKey{plan: planID, kind: kind}] {
		if !t.Start.Before(to) {
			break
		}
		if t.OverlapsStay(from, to) {
			out = append(out, t)
		}
	}
	return out
}

// All returns every table of the plan sorted by start date.
func (ix *Index) All(planID types.ID) []RateTable {
	return slices.Clone(ix.plans[planID])
}

// Conflicts lists existing tables of the same plan and type whose closed interval
// overlaps the candidate's.
func (ix *Index) Conflicts(candidate RateTable) []RateTable {
	var out []RateTable
	for _, t := range ix.groups[indexKey{plan: candidate.RatePlanID, kind: candidate.Type()}] {
		if t.ID != candidate.ID && t.OverlapsTable(candidate) {
			out = append(out, t)
		}
	}
	return out
}
