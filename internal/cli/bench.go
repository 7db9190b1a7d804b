package cli

import (
	"errors"
	"flag"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// BenchOptions holds the mappy-bench command line.
type BenchOptions struct {
	Reference string
	Reads     []string

	Threads  []int // pool sizes to sweep
	Rounds   int
	NoOp     bool // also time each pool size with alignment skipped
	Limit    int  // reads used per round (0 = all)
	QueueCap int
	JSON     bool
	LogLevel string

	Version bool
}

// intList is a comma-separated list of positive ints, e.g. "1,2,4,8".
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, n := range *l {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	var out []int
	for _, p := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return fmt.Errorf("bad pool size %q", p)
		}
		out = append(out, n)
	}
	*l = out
	return nil
}

// DefaultBenchThreads doubles from 1 up to the CPU count.
func DefaultBenchThreads() []int {
	var out []int
	for n := 1; n < runtime.NumCPU(); n *= 2 {
		out = append(out, n)
	}
	return append(out, runtime.NumCPU())
}

// ParseBenchArgs registers and parses the mappy-bench flags.
func ParseBenchArgs(fs *flag.FlagSet, argv []string) (BenchOptions, error) {
	var opt BenchOptions
	var help bool
	threads := intList(DefaultBenchThreads())

	fs.Var(&threads, "threads", "comma-separated pool sizes to sweep")
	fs.IntVar(&opt.Rounds, "rounds", 3, "timed rounds per pool size")
	fs.BoolVar(&opt.NoOp, "no-op", false, "also time each pool size without alignment")
	fs.IntVar(&opt.Limit, "limit", 0, "reads per round (0=all)")
	fs.IntVar(&opt.QueueCap, "queue-capacity", 0, "work queue capacity")
	fs.BoolVar(&opt.JSON, "json", false, "print results as JSON lines instead of a table")
	fs.StringVar(&opt.LogLevel, "log-level", "warn", "log level: debug | info | warn | error")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit")
	fs.BoolVar(&help, "h", false, "show this help message")

	flagArgs, posArgs := splitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	opt.Threads = threads

	files, err := expandPositionals(append(posArgs, fs.Args()...))
	if err != nil {
		return opt, err
	}
	if len(files) < 2 {
		return opt, errors.New("need a reference and at least one reads file")
	}
	opt.Reference, opt.Reads = files[0], files[1:]

	switch {
	case opt.Rounds <= 0:
		return opt, errors.New("--rounds must be > 0")
	case opt.Limit < 0:
		return opt, errors.New("--limit must be >= 0")
	case opt.QueueCap < 0:
		return opt, errors.New("--queue-capacity must be >= 0")
	}
	return opt, nil
}
