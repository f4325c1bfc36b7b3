// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/kagi"
	"github.com/kagi-cli/kagi/lib/fault"
)

type summarizeParams struct {
	cli.CommonParams
	Type     string `flag:"type,t"    desc:"takeaway (key points) or summary (prose)"`
	Language string `flag:"language"  desc:"language to write the summary in (default: the page's)"`
	NoStream bool   `flag:"no-stream" desc:"request a single document instead of a stream"`
}

func summarizeCommand(streams Streams) *cli.Command {
	var params summarizeParams
	return &cli.Command{
		Name:    "summarize",
		Summary: "Summarize a web page, video or document by URL",
		Usage:   "kagi summarize <url> [flags]",
		Examples: []cli.Example{
			{Description: "Key points of an article", Command: "kagi summarize https://go.dev/blog/range-functions"},
			{Description: "A prose summary in German", Command: "kagi summarize https://go.dev/doc/faq -t summary --language DE"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fault.Validation("summarize takes exactly one URL, got %d arguments", len(args))
			}
			env, err := newEnvironment(streams, &params.CommonParams, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			defaults := env.config.Defaults.Summarize
			return env.run(ctx, kagi.Request{
				Kind:     kagi.KindSummarize,
				Input:    args[0],
				NoStream: params.NoStream,
				Summarize: kagi.SummarizeOptions{
					Type:           firstNonEmpty(params.Type, defaults.Type),
					TargetLanguage: firstNonEmpty(params.Language, defaults.Language),
				},
			})
		},
	}
}
