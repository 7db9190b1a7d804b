// Package benchapp implements mappy-bench: it maps the same reads on the
// calling goroutine and through worker pools of several sizes and reports
// throughput for each.
package benchapp

import (
	"context"
	"fmt"
	"time"

	"mappy/internal/appcore"
	"mappy/pkg/mappy"
)

// Modes of a benchmark row.
const (
	ModeSingle    = "single"
	ModeBatch     = "batch"
	ModeBatchNoOp = "batch-noop"
)

// Row is the timing of one mode and pool size.
type Row struct {
	Mode    string        `json:"mode"`
	Threads int           `json:"threads"`
	Reads   int           `json:"reads"`
	Hits    int           `json:"hits"`
	Best    time.Duration `json:"best_ns"`
	Mean    time.Duration `json:"mean_ns"`
	Speedup float64       `json:"speedup"` // single-thread best / this best
}

// ReadsPerSec is the throughput of the best round.
func (r Row) ReadsPerSec() float64 {
	if r.Best <= 0 {
		return 0
	}
	return float64(r.Reads) / r.Best.Seconds()
}

// SweepOptions selects what Sweep times.
type SweepOptions struct {
	Threads []int
	Rounds  int
	NoOp    bool
}

type timing struct {
	best, total time.Duration
	hits        int
}

func (t *timing) add(d time.Duration, hits int) {
	if t.best == 0 || d < t.best {
		t.best = d
	}
	t.total += d
	t.hits = hits
}

func (t timing) row(mode string, threads, reads, rounds int) Row {
	return Row{Mode: mode, Threads: threads, Reads: reads, Hits: t.hits, Best: t.best, Mean: t.total / time.Duration(rounds)}
}

// Sweep times recs with Map on the calling goroutine, then with MapBatch
// for every pool size in o.Threads. The aligner is left running with the
// last pool size.
func Sweep(ctx context.Context, a *mappy.Aligner, recs []mappy.Record, o SweepOptions) ([]Row, error) {
	rounds := max(o.Rounds, 1)

	var single timing
	for range rounds {
		start := time.Now()
		hits := 0
		for _, r := range recs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			seq, _ := r[appcore.KeySeq].(string)
			hs, err := a.Map(seq)
			if err != nil {
				return nil, err
			}
			hits += len(hs)
		}
		single.add(time.Since(start), hits)
	}
	rows := []Row{single.row(ModeSingle, 1, len(recs), rounds)}

	for _, n := range o.Threads {
		if err := a.EnableThreading(n); err != nil {
			return rows, err
		}
		modes := []string{ModeBatch}
		if o.NoOp {
			modes = append(modes, ModeBatchNoOp)
		}
		for _, mode := range modes {
			var t timing
			for range rounds {
				d, hits, err := timeBatch(ctx, a, recs, mode == ModeBatchNoOp)
				if err != nil {
					return rows, err
				}
				t.add(d, hits)
			}
			rows = append(rows, t.row(mode, n, len(recs), rounds))
		}
	}

	for i := range rows {
		if rows[i].Best > 0 {
			rows[i].Speedup = float64(rows[0].Best) / float64(rows[i].Best)
		}
	}
	return rows, nil
}

func timeBatch(ctx context.Context, a *mappy.Aligner, recs []mappy.Record, noOp bool) (time.Duration, int, error) {
	start := time.Now()
	s, err := a.MapBatch(recs, mappy.WithNoOp(noOp), mappy.WithContext(ctx))
	if err != nil {
		return 0, 0, err
	}
	n, hits := 0, 0
	for r := range s.All() {
		n++
		hits += len(r.Hits)
	}
	d := time.Since(start)
	if err := s.Err(); err != nil {
		return 0, 0, err
	}
	if n != len(recs) {
		return 0, 0, fmt.Errorf("batch returned %d results for %d reads", n, len(recs))
	}
	return d, hits, nil
}
