// README: Rate plan selection by segment precedence.
package rates

import (
	"slices"
	"strings"
)

// MatchPlan picks the enabled plan for seg. A supplied sub-segment must match exactly;
// a bare segment matches plans with that segment and no sub-segment; no segment at all
// matches only unsegmented plans. The second result is the number of plans that matched;
// more than one breaks the write-side uniqueness invariant and the lowest ID wins.
func MatchPlan(plans []RatePlan, seg Segment) (RatePlan, int) {
	var matched []RatePlan
	for _, p := range plans {
		if p.Enabled && planMatches(p, seg) {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return RatePlan{}, 0
	}
	slices.SortFunc(matched, func(a, b RatePlan) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return matched[0], len(matched)
}

func planMatches(p RatePlan, seg Segment) bool {
	switch {
	case !seg.SubSegmentID.IsZero():
		return p.SubSegmentID == seg.SubSegmentID
	case !seg.SegmentID.IsZero():
		return p.SegmentID == seg.SegmentID && p.SubSegmentID.IsZero()
	default:
		return p.SegmentID.IsZero() && p.SubSegmentID.IsZero()
	}
}

// SameSegment reports whether two plans claim the same (segment, sub-segment) pair.
func SameSegment(a, b RatePlan) bool {
	return a.SegmentID == b.SegmentID && a.SubSegmentID == b.SubSegmentID
}
