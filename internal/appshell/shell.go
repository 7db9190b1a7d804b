// Package appshell wires a RunContext-style entry point to the process:
// signals, os.Args, standard streams and the exit status.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// RunFunc is the signature shared by the tools' RunContext functions.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs run until it returns or SIGINT/SIGTERM cancels it, then exits.
func Main(run RunFunc) {
	os.Exit(Exec(context.Background(), run, os.Args[1:], os.Stdout, os.Stderr))
}

// Exec is Main without the process exit. A canceled run that still reports
// success exits with 130.
func Exec(parent context.Context, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}
	return code
}
