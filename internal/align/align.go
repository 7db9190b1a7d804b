// Package align is the alignment capability the worker pool drives: the
// Mapper interface and a default minimizer-chaining implementation.
//
// A Mapper must be safe for concurrent use against a shared, read-only
// *index.Index. ChainMapper holds no state and satisfies that trivially.
package align

import (
	"mappy/internal/errs"
	"mappy/internal/index"
)

// Mapper aligns one query against an index.
type Mapper interface {
	Map(ix *index.Index, seq []byte, opts Options) ([]Hit, error)
}

// MapperFunc adapts a function to the Mapper interface.
type MapperFunc func(ix *index.Index, seq []byte, opts Options) ([]Hit, error)

func (f MapperFunc) Map(ix *index.Index, seq []byte, opts Options) ([]Hit, error) {
	return f(ix, seq, opts)
}

// Options tunes a Map call. Zero values select the defaults.
type Options struct {
	CS bool `yaml:"cs"` // emit the cs tag
	MD bool `yaml:"md"` // emit the MD tag

	MinChainScore  int     `yaml:"min_chain_score"`
	MinCount       int     `yaml:"min_count"` // anchors per chain
	MaxGap         int     `yaml:"max_gap"`   // largest gap between chained anchors
	Bandwidth      int     `yaml:"bandwidth"` // largest diagonal shift between chained anchors
	BestN          int     `yaml:"best_n"`    // hits per query, primary included
	SecondaryRatio float64 `yaml:"secondary_ratio"`
	ZDrop          int     `yaml:"z_drop"` // end-extension drop-off
}

const (
	DefaultMinChainScore  = 40
	DefaultMinCount       = 3
	DefaultMaxGap         = 5000
	DefaultBandwidth      = 500
	DefaultBestN          = 5
	DefaultSecondaryRatio = 0.8
	DefaultZDrop          = 40
)

func (o Options) withDefaults() Options {
	if o.MinChainScore == 0 {
		o.MinChainScore = DefaultMinChainScore
	}
	if o.MinCount == 0 {
		o.MinCount = DefaultMinCount
	}
	if o.MaxGap == 0 {
		o.MaxGap = DefaultMaxGap
	}
	if o.Bandwidth == 0 {
		o.Bandwidth = DefaultBandwidth
	}
	if o.BestN == 0 {
		o.BestN = DefaultBestN
	}
	if o.SecondaryRatio == 0 {
		o.SecondaryRatio = DefaultSecondaryRatio
	}
	if o.ZDrop == 0 {
		o.ZDrop = DefaultZDrop
	}
	return o
}

// Validate rejects negative or out-of-range settings.
func (o Options) Validate() error {
	switch {
	case o.MinChainScore < 0:
		return errs.New(errs.KindConfig, "min_chain_score must be >= 0, got %d", o.MinChainScore)
	case o.MinCount < 0:
		return errs.New(errs.KindConfig, "min_count must be >= 0, got %d", o.MinCount)
	case o.MaxGap < 0:
		return errs.New(errs.KindConfig, "max_gap must be >= 0, got %d", o.MaxGap)
	case o.Bandwidth < 0:
		return errs.New(errs.KindConfig, "bandwidth must be >= 0, got %d", o.Bandwidth)
	case o.BestN < 0:
		return errs.New(errs.KindConfig, "best_n must be >= 0, got %d", o.BestN)
	case o.SecondaryRatio < 0 || o.SecondaryRatio > 1:
		return errs.New(errs.KindConfig, "secondary_ratio must be in [0,1], got %g", o.SecondaryRatio)
	case o.ZDrop < 0:
		return errs.New(errs.KindConfig, "z_drop must be >= 0, got %d", o.ZDrop)
	}
	return nil
}
