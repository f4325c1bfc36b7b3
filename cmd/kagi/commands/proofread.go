// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/kagi"
)

type proofreadParams struct {
	cli.CommonParams
	Language  string `flag:"lang,l"      desc:"language of the text, or auto to detect it"`
	Style     string `flag:"style,s"     desc:"writing style: general, academic, business, casual, creative or technical"`
	Level     string `flag:"level"       desc:"correction level: light, standard or thorough"`
	Formality string `flag:"formality,f" desc:"formality: default, more or less"`
	Context   string `flag:"context,c"   desc:"what the text is for, to guide corrections"`
	Model     string `flag:"model,m"     desc:"proofreading model"`
	NoStream  bool   `flag:"no-stream"   desc:"request a single document instead of a stream"`
}

func proofreadCommand(streams Streams) *cli.Command {
	var params proofreadParams
	return &cli.Command{
		Name:    "proofread",
		Summary: "Correct grammar and style and report writing statistics",
		Description: `Proofread text with Kagi Translate's proofreader.

The corrected text streams in as it is produced, followed by a summary
of the corrections, the tone of the text and writing statistics.`,
		Usage: "kagi proofread <text|-> [flags]",
		Examples: []cli.Example{
			{Description: "Proofread a sentence", Command: `kagi proofread "Their going to the store tomorow."`},
			{Description: "Proofread a file formally, as Markdown", Command: "kagi proofread - -f more -F md < draft.txt"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			text, err := readInput(args, streams.In, "text")
			if err != nil {
				return err
			}
			env, err := newEnvironment(streams, &params.CommonParams, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			defaults := env.config.Defaults.Proofread
			return env.run(ctx, kagi.Request{
				Kind:     kagi.KindProofread,
				Input:    text,
				NoStream: params.NoStream,
				Proofread: kagi.ProofreadOptions{
					Language:  firstNonEmpty(params.Language, defaults.Language),
					Style:     firstNonEmpty(params.Style, defaults.Style),
					Level:     firstNonEmpty(params.Level, defaults.Level),
					Formality: firstNonEmpty(params.Formality, defaults.Formality),
					Context:   params.Context,
					Model:     firstNonEmpty(params.Model, defaults.Model),
				},
			})
		},
	}
}
