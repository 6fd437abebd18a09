// README: Interval index and filter tests over in-memory rate tables.
package rates

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"stayprice/internal/types"
)

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func standardTable(id, plan string, start, end civil.Date, nightly int64) RateTable {
	return RateTable{
		ID:         types.ID(id),
		RatePlanID: types.ID(plan),
		Start:      start,
		End:        end,
		Terms:      StandardTerms{Nightly: decimal.NewFromInt(nightly), MinStay: 1},
	}
}

func dynamicTable(id, plan string, start, end civil.Date) RateTable {
	return RateTable{
		ID:         types.ID(id),
		RatePlanID: types.ID(plan),
		Start:      start,
		End:        end,
		Terms: DynamicTerms{
			LowRate:         decimal.NewFromInt(80),
			MaxRate:         decimal.NewFromInt(200),
			LowestOccupancy: decimal.NewFromInt(20),
			MaxOccupancy:    decimal.NewFromInt(90),
			Mode:            OccupancyGlobal,
		},
	}
}

func TestIndexCoveringBoundaries(t *testing.T) {
	ix := NewIndex([]RateTable{
		standardTable("t1", "p1", day(2026, 6, 1), day(2026, 6, 10), 100),
		standardTable("t2", "p1", day(2026, 6, 11), day(2026, 6, 20), 120),
	})

	cases := []struct {
		name   string
		d      civil.Date
		wantID types.ID
		wantN  int
	}{
		{"start is inclusive", day(2026, 6, 1), "t1", 1},
		{"end is inclusive", day(2026, 6, 10), "t1", 1},
		{"next table starts", day(2026, 6, 11), "t2", 1},
		{"before first table", day(2026, 5, 31), "", 0},
		{"after last table", day(2026, 6, 21), "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, n := ix.Covering("p1", RateStandard, tc.d)
			if n != tc.wantN || got.ID != tc.wantID {
				t.Fatalf("Covering(%s) = (%s, %d), want (%s, %d)", tc.d, got.ID, n, tc.wantID, tc.wantN)
			}
		})
	}
}

func TestIndexCoveringSeparatesTypesAndPlans(t *testing.T) {
	ix := NewIndex([]RateTable{
		standardTable("s1", "p1", day(2026, 6, 1), day(2026, 6, 30), 100),
		dynamicTable("d1", "p1", day(2026, 6, 10), day(2026, 6, 12)),
		standardTable("s2", "p2", day(2026, 6, 1), day(2026, 6, 30), 90),
	})

	if got, n := ix.Covering("p1", RateDynamic, day(2026, 6, 11)); n != 1 || got.ID != "d1" {
		t.Fatalf("expected dynamic d1, got (%s, %d)", got.ID, n)
	}
	if _, n := ix.Covering("p1", RateDynamic, day(2026, 6, 13)); n != 0 {
		t.Fatalf("expected no dynamic table on 13th, got %d", n)
	}
	if got, _ := ix.Covering("p1", RateStandard, day(2026, 6, 11)); got.ID != "s1" {
		t.Fatalf("expected s1, got %s", got.ID)
	}
	if got, _ := ix.Covering("p2", RateStandard, day(2026, 6, 11)); got.ID != "s2" {
		t.Fatalf("expected s2 for plan p2, got %s", got.ID)
	}
}

func TestIndexCoveringReportsAnomalousOverlap(t *testing.T) {
	// Overlapping tables of one type cannot be written, but legacy data may hold them.
	ix := NewIndex([]RateTable{
		standardTable("late", "p1", day(2026, 6, 5), day(2026, 6, 15), 150),
		standardTable("early", "p1", day(2026, 6, 1), day(2026, 6, 10), 100),
	})
	got, n := ix.Covering("p1", RateStandard, day(2026, 6, 7))
	if n != 2 {
		t.Fatalf("expected 2 covering tables, got %d", n)
	}
	if got.ID != "early" {
		t.Fatalf("expected earliest-starting table, got %s", got.ID)
	}
}

func TestIndexOverlappingUsesExclusiveCheckout(t *testing.T) {
	ix := NewIndex([]RateTable{
		standardTable("t1", "p1", day(2026, 6, 1), day(2026, 6, 4), 100),
		standardTable("t2", "p1", day(2026, 6, 5), day(2026, 6, 9), 100),
		standardTable("t3", "p1", day(2026, 6, 10), day(2026, 6, 20), 100),
	})

	got := ix.Overlapping("p1", RateStandard, day(2026, 6, 3), day(2026, 6, 10))
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Fatalf("expected [t1 t2], got %v", ids(got))
	}
}

func TestIndexConflicts(t *testing.T) {
	ix := NewIndex([]RateTable{
		standardTable("t1", "p1", day(2026, 6, 1), day(2026, 6, 10), 100),
		dynamicTable("d1", "p1", day(2026, 6, 1), day(2026, 6, 30)),
	})

	cases := []struct {
		name      string
		candidate RateTable
		want      int
	}{
		{"shares end day", standardTable("n", "p1", day(2026, 6, 10), day(2026, 6, 12), 90), 1},
		{"adjacent", standardTable("n", "p1", day(2026, 6, 11), day(2026, 6, 12), 90), 0},
		{"other plan", dynamicTable("n", "p2", day(2026, 6, 1), day(2026, 6, 10)), 0},
		{"other type", standardTable("n", "p1", day(2026, 6, 15), day(2026, 6, 20), 90), 0},
		{"dynamic over dynamic", dynamicTable("n", "p1", day(2026, 6, 15), day(2026, 7, 1)), 1},
		{"same id is an update", standardTable("t1", "p1", day(2026, 6, 1), day(2026, 6, 12), 90), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ix.Conflicts(tc.candidate); len(got) != tc.want {
				t.Fatalf("expected %d conflicts, got %v", tc.want, ids(got))
			}
		})
	}
}

func TestIndexAllIsSortedCopy(t *testing.T) {
	ix := NewIndex([]RateTable{
		standardTable("b", "p1", day(2026, 7, 1), day(2026, 7, 2), 100),
		dynamicTable("a", "p1", day(2026, 6, 1), day(2026, 6, 2)),
	})
	all := ix.All("p1")
	if len(all) != 2 || all[0].ID != "a" {
		t.Fatalf("expected [a b], got %v", ids(all))
	}
	all[0] = RateTable{}
	if ix.All("p1")[0].ID != "a" {
		t.Fatal("All must not expose internal storage")
	}
}

func TestTableFilterBuilderIsImmutable(t *testing.T) {
	base := NewTableFilter("p1")
	dyn := base.OfType(RateDynamic).Covering(day(2026, 6, 11))

	if base.Type != "" {
		t.Fatalf("base filter was modified: %q", base.Type)
	}
	if _, ok := base.CoveringDate(); ok {
		t.Fatal("base filter gained a covering date")
	}

	tables := []RateTable{
		standardTable("s1", "p1", day(2026, 6, 1), day(2026, 6, 30), 100),
		dynamicTable("d1", "p1", day(2026, 6, 10), day(2026, 6, 12)),
		dynamicTable("d2", "p2", day(2026, 6, 10), day(2026, 6, 12)),
	}
	var matched []RateTable
	for _, tbl := range tables {
		if dyn.Match(tbl) {
			matched = append(matched, tbl)
		}
	}
	if len(matched) != 1 || matched[0].ID != "d1" {
		t.Fatalf("expected [d1], got %v", ids(matched))
	}

	stay := base.Overlapping(day(2026, 6, 12), day(2026, 6, 13))
	from, to, ok := stay.StayRange()
	if !ok || from != day(2026, 6, 12) || to != day(2026, 6, 13) {
		t.Fatalf("unexpected stay range %s..%s (%v)", from, to, ok)
	}
	if !stay.Match(tables[1]) || stay.Match(tables[2]) {
		t.Fatal("stay filter matched the wrong tables")
	}
}

func ids(tables []RateTable) []types.ID {
	out := make([]types.ID, len(tables))
	for i, t := range tables {
		out[i] = t.ID
	}
	return out
}
