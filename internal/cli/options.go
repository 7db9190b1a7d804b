// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"

	"mappy/internal/config"
	"mappy/internal/writers"
)

// Options holds the mappy command line.
type Options struct {
	Reference string   // first positional
	Reads     []string // remaining positionals, '-' for stdin

	ConfigFile string
	Threads    int
	NoBackOff  bool
	QueueCap   int
	K, W       int
	CS, MD     bool

	Output    string
	Sort      bool
	LogLevel  string
	LogFormat string

	PrintConfig bool
	Version     bool

	set map[string]bool // flags given explicitly
}

// NewFlagSet returns a FlagSet that reports errors instead of exiting.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

// ParseArgs registers and parses all flags. Positionals may appear before
// or after flags.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.ConfigFile, "config", "", "YAML config file")
	fs.IntVar(&opt.Threads, "threads", 0, "worker threads (0=all CPUs)")
	fs.IntVar(&opt.Threads, "t", 0, "alias of --threads")
	fs.BoolVar(&opt.NoBackOff, "no-back-off", false, "fail a batch when the work queue is full instead of waiting")
	fs.IntVar(&opt.QueueCap, "queue-capacity", 0, "work queue capacity")
	fs.IntVar(&opt.K, "k", 0, "minimizer k-mer size")
	fs.IntVar(&opt.W, "w", 0, "minimizer window size")
	fs.BoolVar(&opt.CS, "cs", false, "emit the cs tag")
	fs.BoolVar(&opt.MD, "md", false, "emit the MD tag")

	fs.StringVar(&opt.Output, "output", "", "output: paf | jsonl | json")
	fs.StringVar(&opt.Output, "o", "", "alias of --output")
	fs.BoolVar(&opt.Sort, "sort", false, "sort output by query name (buffers everything)")
	fs.StringVar(&opt.LogLevel, "log-level", "", "log level: debug | info | warn | error")
	fs.StringVar(&opt.LogFormat, "log-format", "", "log format: console | json")

	fs.BoolVar(&opt.PrintConfig, "print-config", false, "print the effective config and exit")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit")
	fs.BoolVar(&help, "h", false, "show this help message")

	flagArgs, posArgs := splitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	opt.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opt.set[f.Name] = true })
	if opt.Version || opt.PrintConfig {
		return opt, nil
	}

	files, err := expandPositionals(append(posArgs, fs.Args()...))
	if err != nil {
		return opt, err
	}
	if len(files) < 2 {
		return opt, errors.New("need a reference and at least one reads file")
	}
	opt.Reference, opt.Reads = files[0], files[1:]
	if opt.Reference == "-" {
		return opt, errors.New("the reference cannot be read from stdin")
	}
	return opt, validate(opt)
}

func validate(o Options) error {
	if o.Threads < 0 {
		return errors.New("--threads must be >= 0")
	}
	if o.QueueCap < 0 {
		return errors.New("--queue-capacity must be >= 0")
	}
	if o.Output != "" && !writers.Supported(o.Output) {
		return fmt.Errorf("invalid --output %q", o.Output)
	}
	stdin := 0
	for _, r := range o.Reads {
		if r == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return errors.New("'-' (stdin) may be given only once")
	}
	return nil
}

// Set reports whether the named flag was given on the command line.
func (o Options) Set(name string) bool { return o.set[name] }

// Apply overrides cfg with every flag given on the command line.
func (o Options) Apply(cfg *config.Config) {
	if o.Set("threads") || o.Set("t") {
		cfg.Engine.Threads = o.Threads
	}
	if o.Set("no-back-off") {
		cfg.Engine.BackOff = !o.NoBackOff
	}
	if o.Set("queue-capacity") {
		cfg.Engine.QueueCapacity = o.QueueCap
	}
	if o.Set("k") {
		cfg.Index.K = o.K
	}
	if o.Set("w") {
		cfg.Index.W = o.W
	}
	if o.Set("cs") {
		cfg.Map.CS = o.CS
	}
	if o.Set("md") {
		cfg.Map.MD = o.MD
	}
	if o.Set("output") || o.Set("o") {
		cfg.Output.Format = o.Output
	}
	if o.Set("sort") {
		cfg.Output.Sort = o.Sort
	}
	if o.Set("log-level") {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Set("log-format") {
		cfg.Logging.Format = o.LogFormat
	}
}
