package writers

import (
	"cmp"
	"slices"

	"mappy/internal/align"
	"mappy/pkg/api"
)

// Mapped is one query and its hits, ready for output.
type Mapped struct {
	Name string
	Len  int
	Hits []align.Hit
}

// ToAPIHit converts a Hit to the stable wire schema (v1).
func ToAPIHit(h align.Hit) api.HitV1 {
	return api.HitV1{
		QueryStart:  h.QueryStart,
		QueryEnd:    h.QueryEnd,
		Strand:      h.Strand.String(),
		TargetName:  h.TargetName,
		TargetLen:   h.TargetLen,
		TargetStart: h.TargetStart,
		TargetEnd:   h.TargetEnd,
		MatchLen:    h.MatchLen,
		BlockLen:    h.BlockLen,
		MapQ:        h.MapQ,
		Primary:     h.IsPrimary,
		Score:       h.Score,
		Cigar:       h.CigarString(),
		NM:          h.NM,
		MD:          h.MD,
		CS:          h.CS,
	}
}

// ToAPIResult converts m, hits in output order.
func ToAPIResult(m Mapped) api.ResultV1 {
	v := api.ResultV1{QueryName: m.Name, QueryLen: m.Len, Hits: make([]api.HitV1, 0, len(m.Hits))}
	for _, h := range m.Hits {
		v.Hits = append(v.Hits, ToAPIHit(h))
	}
	return v
}

// sortMapped orders queries by name and each query's hits by target
// position, so output no longer depends on completion order.
func sortMapped(list []Mapped) {
	for i := range list {
		list[i].Hits = slices.Clone(list[i].Hits)
		align.SortHits(list[i].Hits)
	}
	slices.SortStableFunc(list, func(a, b Mapped) int { return cmp.Compare(a.Name, b.Name) })
}
