// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/kagi"
)

type searchParams struct {
	cli.CommonParams
	All   bool `flag:"all,a" desc:"fetch every page of results"`
	Batch int  `flag:"batch" desc:"fetch this page of results instead of the first"`
}

func searchCommand(streams Streams) *cli.Command {
	var params searchParams
	return &cli.Command{
		Name:    "search",
		Summary: "Search the web with Kagi",
		Usage:   "kagi search <query> [flags]",
		Examples: []cli.Example{
			{Description: "Search", Command: "kagi search golang iterators"},
			{Description: "Every page of results as CSV", Command: "kagi search golang iterators --all -F csv > results.csv"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			query, err := readInput(args, streams.In, "query")
			if err != nil {
				return err
			}
			env, err := newEnvironment(streams, &params.CommonParams, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			request := kagi.Request{Kind: kagi.KindSearch, Input: query, Search: kagi.SearchOptions{Batch: params.Batch}}
			if !params.All {
				return env.run(ctx, request)
			}
			return searchAll(ctx, env, request)
		},
	}
}

// searchAll follows every page. Pages fetched before a failure are
// still printed.
func searchAll(ctx context.Context, env *environment, request kagi.Request) error {
	live, stop := env.startLive("search")
	var (
		pages []kagi.Result
		err   error
	)
	for page, pageErr := range env.client.SearchAll(ctx, request) {
		if pageErr != nil {
			err = pageErr
			break
		}
		pages = append(pages, page)
		if live != nil {
			live.Status(fmt.Sprintf("%d pages", len(pages)), slog.LevelInfo)
		}
	}
	stop()

	if len(pages) > 0 {
		if writeErr := env.write(pages); writeErr != nil && err == nil {
			err = writeErr
		}
	}
	return err
}
