package align

import "sort"

// LessHit defines a stable order for hits, for output sorting and for
// comparing hit sets regardless of completion order.
func LessHit(a, b Hit) bool {
	if a.TargetName != b.TargetName {
		return a.TargetName < b.TargetName
	}
	if a.TargetStart != b.TargetStart {
		return a.TargetStart < b.TargetStart
	}
	if a.TargetEnd != b.TargetEnd {
		return a.TargetEnd < b.TargetEnd
	}
	if a.Strand != b.Strand {
		return a.Strand > b.Strand
	}
	return a.QueryStart < b.QueryStart
}

func SortHits(hs []Hit) {
	sort.Slice(hs, func(i, j int) bool { return LessHit(hs[i], hs[j]) })
}
