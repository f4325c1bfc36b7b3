// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Command kagi is a command-line client for Kagi's proofreader,
// summarizer, Assistant and search.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/cmd/kagi/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Root(commands.StandardStreams()).Execute(ctx, os.Args[1:])
	if err == nil {
		return 0
	}
	// An ExitError means the command already reported the failure.
	var exit *cli.ExitError
	if !errors.As(err, &exit) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return cli.ExitCode(err)
}
