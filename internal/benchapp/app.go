package benchapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mappy/internal/appcore"
	"mappy/internal/cli"
	"mappy/internal/config"
	"mappy/internal/logging"
	"mappy/internal/version"
	"mappy/internal/writers"
	"mappy/pkg/mappy"
)

const name = "mappy-bench"

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet(name)
	fs.SetOutput(io.Discard)
	cli.BenchUsage(fs, name)

	opts, err := cli.ParseBenchArgs(fs, argv)
	if err != nil {
		code := appcore.ExitOK
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stderr, err)
			code = appcore.ExitUsage
		}
		fs.SetOutput(outw)
		fs.Usage()
		return code
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "%s version %s\n", name, version.Version)
		return appcore.ExitOK
	}

	logger, err := logging.New(stderr, opts.LogLevel, "console")
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}
	defer func() { _ = logger.Sync() }()

	rows, err := bench(parent, opts, logger)
	if err == nil {
		switch {
		case opts.JSON:
			err = RenderJSON(outw, rows)
		case isTerminal(stdout):
			err = RenderTable(outw, rows)
		default:
			err = RenderTSV(outw, rows)
		}
	}
	if err != nil && !writers.IsBrokenPipe(err) {
		_, _ = fmt.Fprintln(stderr, err)
	}
	return appcore.ExitCode(err)
}

// bench loads the index and the reads concurrently, then runs the sweep.
func bench(parent context.Context, opts cli.BenchOptions, logger *zap.Logger) (rows []Row, err error) {
	cfg := config.DefaultConfig()
	cfg.Engine.QueueCapacity = opts.QueueCap
	cfg.Engine.Threads = 1

	var (
		a    *mappy.Aligner
		recs []mappy.Record
	)
	g, ctx := errgroup.WithContext(parent)
	g.Go(func() (err error) {
		a, err = appcore.NewAligner(opts.Reference, cfg, logger)
		return err
	})
	g.Go(func() (err error) {
		recs, err = appcore.ReadRecords(ctx, opts.Reads, opts.Limit)
		return err
	})
	err = g.Wait()
	if a != nil {
		defer func() { err = multierr.Append(err, a.Close()) }()
	}
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("no reads to benchmark")
	}

	logger.Info("benchmark starting",
		zap.Int("reads", len(recs)),
		zap.Ints("threads", opts.Threads),
		zap.Int("rounds", opts.Rounds),
	)
	return Sweep(parent, a, recs, SweepOptions{Threads: opts.Threads, Rounds: opts.Rounds, NoOp: opts.NoOp})
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
