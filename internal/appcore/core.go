// internal/appcore/core.go
package appcore

import (
	"context"
	"errors"
	"flag"

	"go.uber.org/zap"

	"mappy/internal/config"
	"mappy/internal/errs"
	"mappy/internal/fasta"
	"mappy/internal/writers"
	"mappy/pkg/mappy"
)

// Exit codes shared by the command-line tools.
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitRuntime  = 3
	ExitCanceled = 130
)

// Record payload keys. "seq" is the key the engine reads.
const (
	KeySeq  = "seq"
	KeyName = "name"
)

// NewAligner loads ref with the engine settings in cfg and enables
// threading.
func NewAligner(ref string, cfg config.Config, logger *zap.Logger) (*mappy.Aligner, error) {
	a, err := mappy.New(ref, mappy.Config{
		Index:         cfg.Index,
		Map:           cfg.Map,
		QueueCapacity: cfg.Engine.QueueCapacity,
		Backoff:       cfg.Engine.Backoff,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	if err := a.EnableThreading(cfg.EffectiveThreads()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func toRecord(r fasta.Record) mappy.Record {
	return mappy.Record{KeySeq: string(r.Seq), KeyName: r.ID}
}

// StreamRecords sends one Record per FASTA/FASTQ entry of paths, in order,
// until ctx ends. It does not close out.
func StreamRecords(ctx context.Context, paths []string, out chan<- mappy.Record) error {
	for _, p := range paths {
		err := fasta.ScanPath(ctx, p, func(r fasta.Record) error {
			select {
			case out <- toRecord(r):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadRecords loads up to limit records from paths (0 = all).
func ReadRecords(ctx context.Context, paths []string, limit int) ([]mappy.Record, error) {
	var out []mappy.Record
	errDone := errors.New("limit reached")
	for _, p := range paths {
		err := fasta.ScanPath(ctx, p, func(r fasta.Record) error {
			out = append(out, toRecord(r))
			if limit > 0 && len(out) >= limit {
				return errDone
			}
			return nil
		})
		if errors.Is(err, errDone) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToMapped turns a stream result into writer input.
func ToMapped(r mappy.Result) writers.Mapped {
	name, _ := r.Payload[KeyName].(string)
	seq, _ := r.Payload[KeySeq].(string)
	return writers.Mapped{Name: name, Len: len(seq), Hits: r.Hits}
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, writers.IsBrokenPipe(err), errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case errors.Is(err, errs.ErrConfig), errors.Is(err, errs.ErrIndexLoad):
		return ExitUsage
	}
	return ExitRuntime
}
