package cli

import (
	"flag"
	"fmt"
	"io"

	"mappy/internal/version"
)

func header(out io.Writer, name, blurb string) {
	fmt.Fprintf(out, "%s – %s\n\n", name, blurb)
	fmt.Fprintf(out, "Version: %s\n\n", version.Version)
}

// Usage installs the mappy help text on fs.
func Usage(fs *flag.FlagSet, name string) {
	fs.Usage = func() {
		out := fs.Output()
		header(out, name, "map reads against a reference with a worker pool")
		fmt.Fprintf(out, "Usage:\n  %s [flags] <ref.fa[.gz]> <reads.fa|fq[.gz]|-> ...\n", name)

		fmt.Fprintln(out, "\nIndex:")
		fmt.Fprintln(out, "  -k int                      Minimizer k-mer size [15]")
		fmt.Fprintln(out, "  -w int                      Minimizer window size [10]")

		fmt.Fprintln(out, "\nEngine:")
		fmt.Fprintln(out, "  -t, --threads int           Worker threads (0=all CPUs) [0]")
		fmt.Fprintln(out, "      --queue-capacity int    Work queue capacity [50000]")
		fmt.Fprintln(out, "      --no-back-off           Fail when the work queue is full instead of waiting")

		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintln(out, "  -o, --output string         Output: paf | jsonl | json [paf]")
		fmt.Fprintln(out, "      --sort                  Sort by query name (buffers all results)")
		fmt.Fprintln(out, "      --cs                    Emit the cs tag")
		fmt.Fprintln(out, "      --md                    Emit the MD tag")

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintln(out, "      --config file           YAML config (flags override it, MAPPY_* env overrides the file)")
		fmt.Fprintln(out, "      --log-level string      Log level: debug | info | warn | error [warn]")
		fmt.Fprintln(out, "      --log-format string     Log format: console | json [console]")
		fmt.Fprintln(out, "      --print-config          Print the effective config and exit")
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
}

// BenchUsage installs the mappy-bench help text on fs.
func BenchUsage(fs *flag.FlagSet, name string) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}
		header(out, name, "throughput of the mapping engine across pool sizes")
		fmt.Fprintf(out, "Usage:\n  %s [flags] <ref.fa[.gz]> <reads.fa|fq[.gz]> ...\n\n", name)
		fmt.Fprintf(out, "      --threads list          Pool sizes to sweep [%s]\n", def("threads"))
		fmt.Fprintf(out, "      --rounds int            Timed rounds per pool size [%s]\n", def("rounds"))
		fmt.Fprintln(out, "      --no-op                 Also time each pool size without alignment")
		fmt.Fprintf(out, "      --limit int             Reads per round (0=all) [%s]\n", def("limit"))
		fmt.Fprintln(out, "      --queue-capacity int    Work queue capacity [50000]")
		fmt.Fprintln(out, "      --json                  JSON lines instead of a table")
		fmt.Fprintf(out, "      --log-level string      Log level [%s]\n", def("log-level"))
		fmt.Fprintln(out, "      --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
}
