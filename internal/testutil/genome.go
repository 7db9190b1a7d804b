package testutil

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mappy/internal/dna"
	"mappy/internal/fasta"
)

// ContigNames mirrors the four-contig test reference used across the suite.
var ContigNames = []string{
	"Bacillus_subtilis",
	"Enterococcus_faecalis",
	"Escherichia_coli_1",
	"Escherichia_coli_2",
}

// Read is a simulated query with its true origin.
type Read struct {
	ID    string
	Seq   string
	Ref   string
	Start int
	End   int
	Rev   bool
}

// Genome returns len(names) random contigs of the given length. The same
// seed always yields the same genome.
func Genome(seed uint64, names []string, length int) []fasta.Record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	recs := make([]fasta.Record, len(names))
	for i, name := range names {
		seq := make([]byte, length)
		for j := range seq {
			seq[j] = "ACGT"[rng.IntN(4)]
		}
		recs[i] = fasta.Record{ID: name, Seq: seq}
	}
	return recs
}

// Reads samples n error-free reads of the given length from genome; about
// half of them are reverse-complemented.
func Reads(genome []fasta.Record, seed uint64, n, length int) []Read {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]Read, n)
	for i := range out {
		rec := genome[rng.IntN(len(genome))]
		start := rng.IntN(len(rec.Seq) - length + 1)
		seq := append([]byte(nil), rec.Seq[start:start+length]...)
		rev := rng.IntN(2) == 1
		if rev {
			seq = dna.RevComp(seq)
		}
		out[i] = Read{
			ID:    fmt.Sprintf("read_%05d", i),
			Seq:   string(seq),
			Ref:   rec.ID,
			Start: start,
			End:   start + length,
			Rev:   rev,
		}
	}
	return out
}

// FormatFASTA renders records as 80-column FASTA.
func FormatFASTA(recs []fasta.Record) string {
	var b strings.Builder
	for _, r := range recs {
		b.WriteString(">" + r.ID + "\n")
		for off := 0; off < len(r.Seq); off += 80 {
			end := min(off+80, len(r.Seq))
			b.Write(r.Seq[off:end])
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WriteFASTA writes recs to name inside a per-test temp dir and returns the path.
func WriteFASTA(tb testing.TB, name string, recs []fasta.Record) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(FormatFASTA(recs)), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteReadsFASTQ writes reads as FASTQ with constant qualities.
func WriteReadsFASTQ(tb testing.TB, name string, reads []Read) string {
	tb.Helper()
	var b strings.Builder
	for _, r := range reads {
		fmt.Fprintf(&b, "@%s\n%s\n+\n%s\n", r.ID, r.Seq, strings.Repeat("I", len(r.Seq)))
	}
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
