package align

import (
	"strconv"
	"strings"
)

const (
	scoreMatch    = 2
	scoreMismatch = -4
	scoreGap      = -4

	// Gap regions larger than this many DP cells are filled with a
	// diagonal plus a trailing indel instead of a full alignment.
	maxFillCells = 1 << 22
)

// Column ops produced while filling a chain.
const (
	colMatch    = '='
	colMismatch = 'X'
	colIns      = 'I'
	colDel      = 'D'
)

func same(a, b byte) bool { return a == b && a != 'N' }

// extendLeft returns how far the alignment starting at (qi, ti) extends
// leftwards without gaps before the score falls drop below its best.
func extendLeft(q []byte, t string, qi, ti, drop int) int {
	best, bestLen, s := 0, 0, 0
	for l := 1; qi-l >= 0 && ti-l >= 0; l++ {
		if same(q[qi-l], t[ti-l]) {
			s += scoreMatch
		} else {
			s += scoreMismatch
		}
		if s > best {
			best, bestLen = s, l
		} else if best-s > drop {
			break
		}
	}
	return bestLen
}

// extendRight is extendLeft for the end-exclusive positions (qe, te).
func extendRight(q []byte, t string, qe, te, drop int) int {
	best, bestLen, s := 0, 0, 0
	for l := 0; qe+l < len(q) && te+l < len(t); l++ {
		if same(q[qe+l], t[te+l]) {
			s += scoreMatch
		} else {
			s += scoreMismatch
		}
		if s > best {
			best, bestLen = s, l+1
		} else if best-s > drop {
			break
		}
	}
	return bestLen
}

func appendRun(dst []byte, op byte, n int) []byte {
	for ; n > 0; n-- {
		dst = append(dst, op)
	}
	return dst
}

// fillGap globally aligns q against t with linear gap costs and appends
// the column ops to dst.
func fillGap(dst []byte, q []byte, t string) []byte {
	n, m := len(q), len(t)
	switch {
	case n == 0:
		return appendRun(dst, colDel, m)
	case m == 0:
		return appendRun(dst, colIns, n)
	case (n+1)*(m+1) > maxFillCells:
		d := min(n, m)
		for i := 0; i < d; i++ {
			if same(q[i], t[i]) {
				dst = append(dst, colMatch)
			} else {
				dst = append(dst, colMismatch)
			}
		}
		dst = appendRun(dst, colIns, n-d)
		return appendRun(dst, colDel, m-d)
	}

	w := m + 1
	h := make([]int32, (n+1)*w)
	tb := make([]byte, (n+1)*w)
	for j := 1; j <= m; j++ {
		h[j], tb[j] = int32(j*scoreGap), colDel
	}
	for i := 1; i <= n; i++ {
		h[i*w], tb[i*w] = int32(i*scoreGap), colIns
		for j := 1; j <= m; j++ {
			diag, op := h[(i-1)*w+j-1]+scoreMismatch, byte(colMismatch)
			if same(q[i-1], t[j-1]) {
				diag, op = h[(i-1)*w+j-1]+scoreMatch, colMatch
			}
			best := diag
			if up := h[(i-1)*w+j] + scoreGap; up > best {
				best, op = up, colIns
			}
			if left := h[i*w+j-1] + scoreGap; left > best {
				best, op = left, colDel
			}
			h[i*w+j], tb[i*w+j] = best, op
		}
	}

	start := len(dst)
	for i, j := n, m; i > 0 || j > 0; {
		op := tb[i*w+j]
		dst = append(dst, op)
		switch op {
		case colIns:
			i--
		case colDel:
			j--
		default:
			i--
			j--
		}
	}
	for a, b := start, len(dst)-1; a < b; a, b = a+1, b-1 {
		dst[a], dst[b] = dst[b], dst[a]
	}
	return dst
}

// summary holds everything derived from the column ops of one alignment.
type summary struct {
	cigar    []CigarOp
	nm       int
	matchLen int
	blockLen int
	md       string
	cs       string
}

func cigarOpFor(col byte) uint8 {
	switch col {
	case colIns:
		return CigarIns
	case colDel:
		return CigarDel
	}
	return CigarMatch
}

// summarize walks the columns over q and t (already cut to the aligned
// region) and builds the CIGAR, NM and, on request, MD and cs.
func summarize(cols []byte, q []byte, t string, wantMD, wantCS bool) summary {
	var (
		s          summary
		md, cs     strings.Builder
		mdRun      int
		csRun      int
		qi, ti     int
		prevCol    byte
	)
	flushCS := func() {
		if csRun > 0 {
			cs.WriteByte(':')
			cs.WriteString(strconv.Itoa(csRun))
			csRun = 0
		}
	}
	lower := func(b byte) byte { return b | 0x20 }

	for _, c := range cols {
		op := cigarOpFor(c)
		if n := len(s.cigar); n > 0 && s.cigar[n-1].Op == op {
			s.cigar[n-1].Len++
		} else {
			s.cigar = append(s.cigar, CigarOp{Len: 1, Op: op})
		}
		s.blockLen++

		switch c {
		case colMatch:
			s.matchLen++
			mdRun++
			csRun++
			qi++
			ti++
		case colMismatch:
			s.nm++
			if wantMD {
				md.WriteString(strconv.Itoa(mdRun))
				md.WriteByte(t[ti])
			}
			mdRun = 0
			if wantCS {
				flushCS()
				cs.WriteByte('*')
				cs.WriteByte(lower(t[ti]))
				cs.WriteByte(lower(q[qi]))
			}
			qi++
			ti++
		case colIns:
			s.nm++
			if wantCS {
				flushCS()
				if prevCol != colIns {
					cs.WriteByte('+')
				}
				cs.WriteByte(lower(q[qi]))
			}
			qi++
		case colDel:
			s.nm++
			if wantMD {
				if prevCol != colDel {
					md.WriteString(strconv.Itoa(mdRun))
					md.WriteByte('^')
					mdRun = 0
				}
				md.WriteByte(t[ti])
			}
			if wantCS {
				flushCS()
				if prevCol != colDel {
					cs.WriteByte('-')
				}
				cs.WriteByte(lower(t[ti]))
			}
			ti++
		}
		prevCol = c
	}
	if wantMD {
		md.WriteString(strconv.Itoa(mdRun))
		s.md = md.String()
	}
	if wantCS {
		flushCS()
		s.cs = cs.String()
	}
	return s
}
