package align

import (
	"math"
	"slices"

	"mappy/internal/dna"
	"mappy/internal/errs"
	"mappy/internal/index"
)

// ChainMapper seeds with the index's minimizers, chains anchors per target
// and strand, extends the chain ends and fills the gaps between anchors
// with a global alignment. It keeps no state between calls.
type ChainMapper struct{}

func NewChainMapper() *ChainMapper { return &ChainMapper{} }

// Map returns the hits for seq, best first. The primary hit is the
// highest-scoring chain; further hits are secondaries.
func (m *ChainMapper) Map(ix *index.Index, seq []byte, opts Options) ([]Hit, error) {
	if ix == nil {
		return nil, errs.New(errs.KindClosed, "index released")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	k := ix.K()
	q := dna.Normalize(slices.Clone(seq))
	if len(q) < k {
		return nil, nil
	}

	groups := collectAnchors(ix, index.Sketch(q, k, ix.W()), len(q))
	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareKeys)

	var chains []chain
	for _, key := range keys {
		chains = append(chains, chainAnchors(key, groups[key], k, opts)...)
	}
	if len(chains) == 0 {
		return nil, nil
	}
	rankChains(chains)

	best, second := chains[0].score, 0.0
	if len(chains) > 1 {
		second = chains[1].score
	}

	var rc []byte
	hits := make([]Hit, 0, min(len(chains), opts.BestN))
	for i, c := range chains {
		if i >= opts.BestN || (i > 0 && c.score < opts.SecondaryRatio*best) {
			break
		}
		oq := q
		if c.key.rev {
			if rc == nil {
				rc = dna.RevComp(q)
			}
			oq = rc
		}
		h := alignChain(ix, oq, c, opts)
		if i == 0 {
			h.IsPrimary = true
			h.MapQ = mapQ(best, second, len(c.anchors))
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// alignChain turns a chain into a Hit. q is the query on the chain's strand.
func alignChain(ix *index.Index, q []byte, c chain, opts Options) Hit {
	k := ix.K()
	t := ix.Target(int(c.key.ref))
	first, last := c.anchors[0], c.anchors[len(c.anchors)-1]

	qs, ts := int(first.q)-k+1, int(first.t)-k+1
	qe, te := int(last.q)+1, int(last.t)+1
	l := extendLeft(q, t, qs, ts, opts.ZDrop)
	qs, ts = qs-l, ts-l
	r := extendRight(q, t, qe, te, opts.ZDrop)
	qe, te = qe+r, te+r

	cols := make([]byte, 0, qe-qs+16)
	qp, tp := qs, ts
	for _, a := range c.anchors {
		aqe, ate := int(a.q)+1, int(a.t)+1
		aqs, ats := aqe-k, ate-k
		switch {
		case aqe <= qp || ate <= tp:
			continue
		case aqs >= qp && ats >= tp:
			cols = fillGap(cols, q[qp:aqs], t[tp:ats])
			cols = appendRun(cols, colMatch, k)
		case aqe-qp == ate-tp:
			// overlaps the previous anchor on the same diagonal
			cols = appendRun(cols, colMatch, aqe-qp)
		default:
			continue
		}
		qp, tp = aqe, ate
	}
	cols = fillGap(cols, q[qp:qe], t[tp:te])

	sum := summarize(cols, q[qs:qe], t[ts:te], opts.MD, opts.CS)
	h := Hit{
		QueryStart:  qs,
		QueryEnd:    qe,
		Strand:      Forward,
		TargetName:  ix.Name(int(c.key.ref)),
		TargetLen:   len(t),
		TargetStart: ts,
		TargetEnd:   te,
		MatchLen:    sum.matchLen,
		BlockLen:    sum.blockLen,
		Score:       int(math.Round(c.score)),
		Cigar:       sum.cigar,
		NM:          sum.nm,
		MD:          sum.md,
		CS:          sum.cs,
	}
	if c.key.rev {
		h.Strand = Reverse
		h.QueryStart, h.QueryEnd = len(q)-qe, len(q)-qs
	}
	return h
}

// mapQ scales the gap between the best and second-best chain to 0-60,
// discounted for chains with few anchors.
func mapQ(best, second float64, anchors int) uint32 {
	if best <= 0 {
		return 0
	}
	q := 60 * (1 - second/best)
	if anchors < 10 {
		q *= float64(anchors) / 10
	}
	return uint32(math.Round(max(0, min(60, q))))
}
