// internal/app/app.go
package app

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

const name = "mappy"

// flush reports a failed flush on stderr; a broken pipe is not a failure.
func flush(outw *bufio.Writer, stderr io.Writer, code int) int {
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return appcore.ExitOK
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return appcore.ExitRuntime
	}
	return code
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	fs := cli.NewFlagSet(name)
	fs.SetOutput(io.Discard)
	cli.Usage(fs, name)

	if len(argv) == 0 {
		fs.SetOutput(outw)
		fs.Usage()
		return flush(outw, stderr, appcore.ExitOK)
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		code := appcore.ExitOK
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stderr, err)
			code = appcore.ExitUsage
		}
		fs.SetOutput(outw)
		fs.Usage()
		return flush(outw, stderr, code)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "%s version %s\n", name, version.Version)
		return flush(outw, stderr, appcore.ExitOK)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err == nil {
		opts.Apply(&cfg)
		err = cfg.Validate()
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}
	if opts.PrintConfig {
		_, _ = fmt.Fprint(outw, cfg.String())
		return flush(outw, stderr, appcore.ExitOK)
	}

	logger, err := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}
	defer func() { _ = logger.Sync() }()

	err = run(parent, opts, cfg, outw, logger)
	if err != nil && !writers.IsBrokenPipe(err) {
		_, _ = fmt.Fprintln(stderr, err)
	}
	return flush(outw, stderr, appcore.ExitCode(err))
}

// run maps every read file as one streamed batch. Reads flow from the
// FASTA/FASTQ scanner through a channel into MapBatch; results flow from
// the stream into the writer goroutine.
func run(parent context.Context, opts cli.Options, cfg config.Config, out io.Writer, logger *zap.Logger) (err error) {
	a, err := appcore.NewAligner(opts.Reference, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	parent, cancel := context.WithCancel(parent)
	defer cancel()
	g, ctx := errgroup.WithContext(parent)

	recs := make(chan mappy.Record, 1024)
	g.Go(func() error {
		defer close(recs)
		return appcore.StreamRecords(ctx, opts.Reads, recs)
	})

	s, err := a.MapBatch((<-chan mappy.Record)(recs),
		mappy.WithBackOff(cfg.Engine.BackOff),
		mappy.WithContext(ctx),
	)
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	logger.Info("mapping started",
		zap.String("batch", s.ID()),
		zap.Strings("reads", opts.Reads),
		zap.Int("threads", a.Threads()),
	)

	in, writeErr := writers.Start(cfg.Output.Format, out, cfg.Output.Sort, a.Threads()*4)
	var mapped, hits int
	g.Go(func() error {
		defer s.Close()
		for s.Next() {
			r := s.Result()
			mapped++
			hits += len(r.Hits)
			in <- appcore.ToMapped(r)
		}
		return s.Err()
	})

	gerr := g.Wait()
	close(in)
	werr := <-writeErr
	logger.Info("mapping finished",
		zap.String("batch", s.ID()),
		zap.Int("queries", mapped),
		zap.Int("hits", hits),
		zap.Error(gerr),
	)
	return multierr.Combine(werr, gerr)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
