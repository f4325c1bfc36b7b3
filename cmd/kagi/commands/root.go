// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the kagi command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/version"
)

// Streams are the standard streams commands read and write. Tests
// substitute buffers.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StandardStreams are the process's own.
func StandardStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type rootParams struct {
	Version bool `flag:"version,V" desc:"print version information and exit"`
}

// Root returns the kagi command tree.
func Root(streams Streams) *cli.Command {
	var params rootParams
	root := &cli.Command{
		Name: "kagi",
		Description: `Use Kagi from the command line: proofread text, summarize pages, ask the
Assistant and search, with the session of a signed-in browser.

Run "kagi login" once to save your kagi_session cookie, or set KAGI_SESSION.`,
		Params: func() any { return &params },
		Stderr: streams.Err,
		Subcommands: []*cli.Command{
			proofreadCommand(streams),
			summarizeCommand(streams),
			askCommand(streams),
			searchCommand(streams),
			loginCommand(streams),
			logoutCommand(streams),
			whoamiCommand(streams),
			versionCommand(streams),
		},
	}
	root.Run = func(_ context.Context, args []string, _ *slog.Logger) error {
		if params.Version {
			_, err := fmt.Fprintf(streams.Out, "kagi %s\n", version.Full())
			return err
		}
		root.PrintHelp(streams.Err)
		if len(args) > 0 {
			return fault.Validation("unexpected argument %q", args[0])
		}
		return fault.Validation("a command is required")
	}
	return root
}

func versionCommand(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fault.Validation("unexpected argument %q", args[0])
			}
			_, err := fmt.Fprintf(streams.Out, "kagi %s\n", version.Full())
			return err
		},
	}
}
