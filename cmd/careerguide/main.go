package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/careerguide/careerguide/internal/cli"
)

var (
	// Injected at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, version, commit, date); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
