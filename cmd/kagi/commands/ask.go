// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/kagi"
)

type askParams struct {
	cli.CommonParams
	Model      string `flag:"model,m"     desc:"assistant model"`
	Thread     string `flag:"thread,t"    desc:"continue the conversation with this thread ID"`
	NoInternet bool   `flag:"no-internet" desc:"answer without web search"`
}

func askCommand(streams Streams) *cli.Command {
	var params askParams
	return &cli.Command{
		Name:    "ask",
		Summary: "Ask the Kagi Assistant",
		Description: `Send a prompt to the Kagi Assistant and print its answer.

The console format shows the model's thinking dimmed before the answer
and ends with the thread ID; pass it to --thread to follow up.`,
		Usage: "kagi ask <prompt|-> [flags]",
		Examples: []cli.Example{
			{Description: "Ask a question", Command: `kagi ask "How do Go iterators work?"`},
			{Description: "Follow up in the same thread", Command: `kagi ask "Show an example" --thread 5a4f9b6e-2c1d-4e8f-9a7b-3c2d1e0f4a5b`},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			prompt, err := readInput(args, streams.In, "prompt")
			if err != nil {
				return err
			}
			env, err := newEnvironment(streams, &params.CommonParams, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			return env.run(ctx, kagi.Request{
				Kind:  kagi.KindAsk,
				Input: prompt,
				Ask: kagi.AskOptions{
					Model:      firstNonEmpty(params.Model, env.config.Defaults.Ask.Model),
					ThreadID:   params.Thread,
					NoInternet: params.NoInternet,
				},
			})
		},
	}
}
