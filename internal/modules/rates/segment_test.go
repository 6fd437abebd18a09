package rates

import "testing"

func TestMatchPlanPrecedence(t *testing.T) {
	plans := []RatePlan{
		{ID: "base", Enabled: true},
		{ID: "corp", Enabled: true, SegmentID: "corporate"},
		{ID: "corp-acme", Enabled: true, SegmentID: "corporate", SubSegmentID: "acme"},
		{ID: "corp-off", Enabled: false, SegmentID: "corporate", SubSegmentID: "globex"},
	}

	cases := []struct {
		name   string
		seg    Segment
		wantID string
		wantN  int
	}{
		{"no segment picks unsegmented plan", Segment{}, "base", 1},
		{"segment only", Segment{SegmentID: "corporate"}, "corp", 1},
		{"sub-segment wins", Segment{SegmentID: "corporate", SubSegmentID: "acme"}, "corp-acme", 1},
		{"sub-segment without segment", Segment{SubSegmentID: "acme"}, "corp-acme", 1},
		{"disabled plan is ignored", Segment{SegmentID: "corporate", SubSegmentID: "globex"}, "", 0},
		{"unknown segment", Segment{SegmentID: "leisure"}, "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, n := MatchPlan(plans, tc.seg)
			if string(got.ID) != tc.wantID || n != tc.wantN {
				t.Fatalf("MatchPlan(%+v) = (%s, %d), want (%s, %d)", tc.seg, got.ID, n, tc.wantID, tc.wantN)
			}
		})
	}
}

func TestMatchPlanDuplicateSegmentIsDeterministic(t *testing.T) {
	plans := []RatePlan{
		{ID: "p9", Enabled: true, SegmentID: "corporate"},
		{ID: "p2", Enabled: true, SegmentID: "corporate"},
	}
	got, n := MatchPlan(plans, Segment{SegmentID: "corporate"})
	if n != 2 || got.ID != "p2" {
		t.Fatalf("expected lowest id p2 out of 2, got (%s, %d)", got.ID, n)
	}
}

func TestSegmentEffective(t *testing.T) {
	if got := (Segment{SegmentID: "a", SubSegmentID: "b"}).Effective(); got != "b" {
		t.Fatalf("expected sub-segment, got %s", got)
	}
	if got := (Segment{SegmentID: "a"}).Effective(); got != "a" {
		t.Fatalf("expected segment, got %s", got)
	}
	if !SameSegment(RatePlan{SegmentID: "a"}, RatePlan{SegmentID: "a"}) {
		t.Fatal("expected same segment")
	}
	if SameSegment(RatePlan{SegmentID: "a"}, RatePlan{SegmentID: "a", SubSegmentID: "b"}) {
		t.Fatal("sub-segment makes plans distinct")
	}
}
