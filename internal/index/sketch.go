package index

import "mappy/internal/dna"

// Minimizer is one selected (w,k)-minimizer of a sequence. Pos is the
// 0-based position of the k-mer's last base; Rev is set when the canonical
// k-mer came from the reverse strand.
type Minimizer struct {
	Hash uint64
	Pos  int32
	Rev  bool
}

// hash64 is an invertible integer hash over the 2k-bit k-mer space, so
// distinct k-mers never collide.
func hash64(key, mask uint64) uint64 {
	key = (^key + (key << 21)) & mask
	key = key ^ key>>24
	key = ((key + (key << 3)) + (key << 8)) & mask
	key = key ^ key>>14
	key = ((key + (key << 2)) + (key << 4)) & mask
	key = key ^ key>>28
	key = (key + (key << 31)) & mask
	return key
}

// Sketch returns the (w,k)-minimizers of seq in position order. K-mers
// spanning a non-ACGT base and strand-symmetric k-mers are skipped. A
// sequence shorter than one full window still yields its single best
// k-mer when it has any.
func Sketch(seq []byte, k, w int) []Minimizer {
	if k <= 0 || k > MaxK || w <= 0 || len(seq) < k {
		return nil
	}
	mask := uint64(1)<<(2*uint(k)) - 1
	shift := 2 * uint(k-1)

	var (
		fwd, rev uint64
		span     int
		out      []Minimizer
		deque    []Minimizer // monotonic by hash, front is the window minimum
		lastPos  int32 = -1
	)
	emit := func() {
		if len(deque) == 0 {
			return
		}
		m := deque[0]
		if m.Pos != lastPos {
			out = append(out, m)
			lastPos = m.Pos
		}
	}

	for i := 0; i < len(seq); i++ {
		c := dna.Code2[seq[i]]
		if c > 3 {
			span = 0
			fwd, rev = 0, 0
		} else {
			fwd = (fwd<<2 | uint64(c)) & mask
			rev = rev>>2 | uint64(3-c)<<shift
			span++
		}
		if span >= k && fwd != rev {
			m := Minimizer{Pos: int32(i)}
			if fwd < rev {
				m.Hash = hash64(fwd, mask)
			} else {
				m.Hash, m.Rev = hash64(rev, mask), true
			}
			for len(deque) > 0 && deque[len(deque)-1].Hash > m.Hash {
				deque = deque[:len(deque)-1]
			}
			deque = append(deque, m)
		}
		for len(deque) > 0 && int(deque[0].Pos) < i-w+1 {
			deque = deque[1:]
		}
		if i >= k+w-2 {
			emit()
		}
	}
	if len(seq) < k+w-1 {
		emit()
	}
	return out
}
