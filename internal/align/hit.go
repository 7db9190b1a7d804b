package align

import (
	"fmt"
	"strconv"
	"strings"
)

// Strand is the query strand a hit lies on relative to the target.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// CIGAR operation codes, in SAM/BAM order.
const (
	CigarMatch uint8 = iota
	CigarIns
	CigarDel
	CigarSkip
	CigarSoftClip
	CigarHardClip
	CigarPad
	CigarEqual
	CigarDiff
)

const cigarChars = "MIDNSHP=X"

// CigarOp is one run-length CIGAR operation.
type CigarOp struct {
	Len uint32
	Op  uint8
}

func (c CigarOp) String() string {
	op := byte('?')
	if int(c.Op) < len(cigarChars) {
		op = cigarChars[c.Op]
	}
	return strconv.FormatUint(uint64(c.Len), 10) + string(op)
}

// Hit is one alignment of a query against a reference sequence.
// Coordinates are 0-based, end-exclusive. Query coordinates are always on
// the forward query; CIGAR, MD and cs follow the target's forward strand.
type Hit struct {
	QueryStart  int
	QueryEnd    int
	Strand      Strand
	TargetName  string
	TargetLen   int
	TargetStart int
	TargetEnd   int
	MatchLen    int // matching bases
	BlockLen    int // alignment columns, gaps included
	MapQ        uint32
	IsPrimary   bool
	Score       int
	Cigar       []CigarOp
	NM          int
	MD          string // set only when requested
	CS          string // set only when requested
}

// CigarString renders the CIGAR, e.g. "120M2D30M".
func (h Hit) CigarString() string {
	var b strings.Builder
	for _, c := range h.Cigar {
		b.WriteString(c.String())
	}
	return b.String()
}

// String renders the hit as PAF columns 3-12 plus the tp and cg tags.
func (h Hit) String() string {
	tp := "tp:A:S"
	if h.IsPrimary {
		tp = "tp:A:P"
	}
	return fmt.Sprintf("%d\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\tcg:Z:%s",
		h.QueryStart, h.QueryEnd, h.Strand, h.TargetName, h.TargetLen,
		h.TargetStart, h.TargetEnd, h.MatchLen, h.BlockLen, h.MapQ, tp, h.CigarString())
}
