package align

import (
	"cmp"
	"math"
	"slices"

	"mappy/internal/index"
)

// anchor is a shared k-mer; t and q are the positions of its last base on
// the target and on the query as oriented for the anchor's strand.
type anchor struct {
	t, q int32
}

type groupKey struct {
	ref int32
	rev bool
}

func compareKeys(a, b groupKey) int {
	if c := cmp.Compare(a.ref, b.ref); c != 0 {
		return c
	}
	switch {
	case a.rev == b.rev:
		return 0
	case b.rev:
		return -1
	}
	return 1
}

type chain struct {
	key     groupKey
	anchors []anchor // strictly increasing in t and q
	score   float64
}

// chainLookback bounds how many preceding anchors the chaining DP tries.
const chainLookback = 50

// collectAnchors looks every query minimizer up in ix and groups the
// resulting anchors by target and strand.
func collectAnchors(ix *index.Index, qm []index.Minimizer, qlen int) map[groupKey][]anchor {
	k := int32(ix.K())
	groups := make(map[groupKey][]anchor)
	for _, m := range qm {
		for loc := range ix.Lookup(m.Hash) {
			key := groupKey{ref: loc.Ref, rev: m.Rev != loc.Rev}
			q := m.Pos
			if key.rev {
				// last base of the same k-mer on the reverse-complemented query
				q = int32(qlen) - 2 - m.Pos + k
			}
			groups[key] = append(groups[key], anchor{t: loc.Pos, q: q})
		}
	}
	return groups
}

func gapCost(gap int32, k int) float64 {
	if gap == 0 {
		return 0
	}
	return 0.01*float64(k)*float64(gap) + 0.5*math.Log2(float64(gap))
}

// chainAnchors runs the chaining DP over one (target, strand) group and
// returns every chain that passes the score and count thresholds.
func chainAnchors(key groupKey, as []anchor, k int, o Options) []chain {
	slices.SortFunc(as, func(a, b anchor) int {
		if c := cmp.Compare(a.t, b.t); c != 0 {
			return c
		}
		return cmp.Compare(a.q, b.q)
	})
	as = slices.Compact(as)

	n := len(as)
	score := make([]float64, n)
	prev := make([]int, n)
	maxGap, bw := int32(o.MaxGap), int32(o.Bandwidth)
	for i := range as {
		score[i], prev[i] = float64(k), -1
		for j := i - 1; j >= 0 && j >= i-chainLookback; j-- {
			dt, dq := as[i].t-as[j].t, as[i].q-as[j].q
			if dt <= 0 || dq <= 0 || dt > maxGap || dq > maxGap {
				continue
			}
			gap := dt - dq
			if gap < 0 {
				gap = -gap
			}
			if gap > bw {
				continue
			}
			s := score[j] + float64(min(dt, dq, int32(k))) - gapCost(gap, k)
			if s > score[i] {
				score[i], prev[i] = s, j
			}
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(score[b], score[a]) })

	used := make([]bool, n)
	var out []chain
	for _, end := range order {
		if used[end] {
			continue
		}
		var idx []int
		i := end
		for i >= 0 && !used[i] {
			idx = append(idx, i)
			used[i] = true
			i = prev[i]
		}
		sc := score[end]
		if i >= 0 {
			sc -= score[i]
		}
		if len(idx) < o.MinCount || sc < float64(o.MinChainScore) {
			continue
		}
		c := chain{key: key, score: sc, anchors: make([]anchor, len(idx))}
		for p, ai := range idx {
			c.anchors[len(idx)-1-p] = as[ai]
		}
		out = append(out, c)
	}
	return out
}

// rankChains orders chains best first; ties break on target, strand and
// position so the result never depends on map iteration order.
func rankChains(cs []chain) {
	slices.SortFunc(cs, func(a, b chain) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := compareKeys(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.anchors[0].t, b.anchors[0].t)
	})
}
