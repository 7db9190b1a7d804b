package writers

import (
	"fmt"
	"io"
	"slices"
	"sort"
)

// Output formats.
const (
	FormatPAF   = "paf"
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
)

// StartFunc starts a writer goroutine. sorted asks the writer to buffer
// everything and emit it in a deterministic order.
type StartFunc func(out io.Writer, sorted bool, bufSize int) (chan<- Mapped, <-chan error)

var registry = map[string]StartFunc{
	FormatPAF:   startPAF,
	FormatJSONL: startJSONL,
	FormatJSON:  startJSON,
}

// Register adds or replaces the writer for format.
func Register(format string, fn StartFunc) { registry[format] = fn }

// Formats lists the registered format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether format has a registered writer.
func Supported(format string) bool { return slices.Contains(Formats(), format) }

// Start spins up the writer for format. An unknown format still returns a
// usable channel; the error is reported on the error channel once the
// caller closes it.
func Start(format string, out io.Writer, sorted bool, bufSize int) (chan<- Mapped, <-chan error) {
	if fn, ok := registry[format]; ok {
		return fn(out, sorted, bufSize)
	}
	return goWriter(bufSize, func(in <-chan Mapped) error {
		for range in {
		}
		return fmt.Errorf("unknown output format %q (no writer registered)", format)
	})
}

func goWriter(bufSize int, run func(<-chan Mapped) error) (chan<- Mapped, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan Mapped, bufSize)
	errCh := make(chan error, 1)
	go func() { errCh <- run(in) }()
	return in, errCh
}

func collect(in <-chan Mapped) []Mapped {
	var buf []Mapped
	for m := range in {
		buf = append(buf, m)
	}
	return buf
}

func startPAF(out io.Writer, sorted bool, bufSize int) (chan<- Mapped, <-chan error) {
	return goWriter(bufSize, func(in <-chan Mapped) error {
		if !sorted {
			return StreamPAF(out, in)
		}
		buf := collect(in)
		sortMapped(buf)
		return WritePAF(out, buf)
	})
}

func startJSON(out io.Writer, sorted bool, bufSize int) (chan<- Mapped, <-chan error) {
	return goWriter(bufSize, func(in <-chan Mapped) error {
		buf := collect(in)
		if sorted {
			sortMapped(buf)
		}
		return WriteJSON(out, buf)
	})
}

func startJSONL(out io.Writer, sorted bool, bufSize int) (chan<- Mapped, <-chan error) {
	if !sorted {
		return StartJSONLWriter(out, bufSize)
	}
	return goWriter(bufSize, func(in <-chan Mapped) error {
		buf := collect(in)
		sortMapped(buf)
		w, done := StartJSONLWriter(out, len(buf))
		for _, m := range buf {
			w <- m
		}
		close(w)
		return <-done
	})
}
