// Command imgnorm decodes HEIC/AVIF/HDR and ordinary images into upright
// rasters, one file or a whole library at a time.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/imgnorm/internal/cli"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// SIGINT/SIGTERM cancel the context so a batch stops between files
	// without leaving partial output or temp artifacts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, version, commit, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "imgnorm: %v\n", err)
		return 1
	}
	return 0
}
