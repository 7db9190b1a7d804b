// Package index holds the read-only reference index and the reference-counted
// Handle through which the worker pool shares it.
//
// An *Index has no exported mutators; reference sequences are stored as
// strings so no caller can obtain a writable view of them.
package index

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"

	"mappy/internal/dna"
	"mappy/internal/errs"
	"mappy/internal/fasta"
)

const (
	DefaultK      = 15
	DefaultW      = 10
	DefaultMaxOcc = 1000
	MaxK          = 28
	MaxW          = 255
)

// Options controls index construction. Zero values select the defaults.
type Options struct {
	K      int `yaml:"k"`
	W      int `yaml:"w"`
	MaxOcc int `yaml:"max_occ"` // seeds occurring more often are dropped (0 = default)
}

func (o Options) withDefaults() Options {
	if o.K == 0 {
		o.K = DefaultK
	}
	if o.W == 0 {
		o.W = DefaultW
	}
	if o.MaxOcc == 0 {
		o.MaxOcc = DefaultMaxOcc
	}
	return o
}

// Validate checks the k/w bounds.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.K < 1 || o.K > MaxK {
		return errs.New(errs.KindConfig, "k must be in [1,%d], got %d", MaxK, o.K)
	}
	if o.W < 1 || o.W > MaxW {
		return errs.New(errs.KindConfig, "w must be in [1,%d], got %d", MaxW, o.W)
	}
	if o.MaxOcc < 0 {
		return errs.New(errs.KindConfig, "max_occ must be >= 0, got %d", o.MaxOcc)
	}
	return nil
}

// Loc is one occurrence of a minimizer in the reference.
type Loc struct {
	Ref int32
	Pos int32 // last base of the k-mer
	Rev bool
}

// Index is the loaded reference. It is never mutated after Build returns.
type Index struct {
	k, w   int
	names  []string
	byName map[string]int
	seqs   []string
	table  map[uint64][]Loc
}

// Build constructs an Index from already-parsed reference records.
func Build(recs []fasta.Record, opts Options) (*Index, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if len(recs) == 0 {
		return nil, errs.New(errs.KindIndexLoad, "no reference sequences")
	}

	ix := &Index{
		k:      opts.K,
		w:      opts.W,
		names:  make([]string, 0, len(recs)),
		byName: make(map[string]int, len(recs)),
		seqs:   make([]string, 0, len(recs)),
		table:  make(map[uint64][]Loc),
	}
	for i, r := range recs {
		if r.ID == "" {
			return nil, errs.New(errs.KindIndexLoad, "record %d has an empty name", i)
		}
		if _, dup := ix.byName[r.ID]; dup {
			return nil, errs.New(errs.KindIndexLoad, "duplicate sequence name %q", r.ID)
		}
		seq := dna.Normalize(append([]byte(nil), r.Seq...))
		ix.byName[r.ID] = len(ix.names)
		ix.names = append(ix.names, r.ID)
		ix.seqs = append(ix.seqs, string(seq))
		for _, m := range Sketch(seq, ix.k, ix.w) {
			ix.table[m.Hash] = append(ix.table[m.Hash], Loc{Ref: int32(i), Pos: m.Pos, Rev: m.Rev})
		}
	}
	if opts.MaxOcc > 0 {
		for h, locs := range ix.table {
			if len(locs) > opts.MaxOcc {
				delete(ix.table, h)
			}
		}
	}
	return ix, nil
}

// Load reads a FASTA reference (optionally gzip-compressed) and returns a
// Handle holding the only reference to the new Index.
func Load(ctx context.Context, path string, opts Options, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	recs, err := fasta.ReadAll(ctx, path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIndexLoad, err, "read %s", path)
	}
	ix, err := Build(recs, opts)
	if err != nil {
		if errs.KindOf(err) == errs.KindIndexLoad {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	logger.Info("index loaded",
		zap.String("path", path),
		zap.Int("k", ix.k),
		zap.Int("w", ix.w),
		zap.Int("n_seq", ix.NSeq()),
		zap.Int("minimizers", len(ix.table)),
	)
	return NewHandle(ix, func() {
		logger.Debug("index released", zap.String("path", path))
	}), nil
}

func (ix *Index) K() int    { return ix.k }
func (ix *Index) W() int    { return ix.w }
func (ix *Index) NSeq() int { return len(ix.names) }

// SeqNames returns the sequence names in load order. The slice is a copy.
func (ix *Index) SeqNames() []string { return slices.Clone(ix.names) }

// Name returns the name of reference id.
func (ix *Index) Name(id int) string { return ix.names[id] }

// Target returns the sequence of reference id.
func (ix *Index) Target(id int) string { return ix.seqs[id] }

// SeqLen returns the length of reference id.
func (ix *Index) SeqLen(id int) int { return len(ix.seqs[id]) }

// ID resolves a sequence name.
func (ix *Index) ID(name string) (int, bool) {
	id, ok := ix.byName[name]
	return id, ok
}

// Seq returns the full stored sequence for name.
func (ix *Index) Seq(name string) (string, error) {
	id, ok := ix.byName[name]
	if !ok {
		return "", errs.New(errs.KindNotFound, "sequence %q not in index", name)
	}
	return ix.seqs[id], nil
}

// SubSeq returns name[start:end]. An end that is negative or past the
// sequence clamps to its length; start must be inside the sequence and
// before end.
func (ix *Index) SubSeq(name string, start, end int) (string, error) {
	s, err := ix.Seq(name)
	if err != nil {
		return "", err
	}
	if end < 0 || end > len(s) {
		end = len(s)
	}
	if start < 0 || start >= len(s) || start >= end {
		return "", errs.New(errs.KindInvalidRange, "invalid range [%d,%d) for %q of length %d", start, end, name, len(s))
	}
	return s[start:end], nil
}

// Lookup yields the reference occurrences of a minimizer hash.
func (ix *Index) Lookup(hash uint64) iter.Seq[Loc] {
	locs := ix.table[hash]
	return func(yield func(Loc) bool) {
		for _, l := range locs {
			if !yield(l) {
				return
			}
		}
	}
}
