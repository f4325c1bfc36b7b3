// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/render"
)

// whoamiOutput describes the session and the account behind it. It
// never includes the session value or the token.
type whoamiOutput struct {
	SessionSource      string    `json:"session_source"`
	SessionFingerprint string    `json:"session_fingerprint"`
	SubjectID          string    `json:"subject_id"`
	AccountType        string    `json:"account_type"`
	Subscription       bool      `json:"subscription"`
	LoggedIn           bool      `json:"logged_in"`
	TokenIssuedAt      time.Time `json:"token_issued_at"`
	TokenExpiresAt     time.Time `json:"token_expires_at"`
	TokenCache         string    `json:"token_cache,omitempty"`
}

func (o whoamiOutput) rows() [][]string {
	return [][]string{
		{"session_source", o.SessionSource},
		{"session_fingerprint", o.SessionFingerprint},
		{"subject_id", o.SubjectID},
		{"account_type", o.AccountType},
		{"subscription", strconv.FormatBool(o.Subscription)},
		{"logged_in", strconv.FormatBool(o.LoggedIn)},
		{"token_issued_at", o.TokenIssuedAt.Format(time.RFC3339)},
		{"token_expires_at", o.TokenExpiresAt.Format(time.RFC3339)},
		{"token_cache", o.TokenCache},
	}
}

func whoamiCommand(streams Streams) *cli.Command {
	var params cli.CommonParams
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the account behind the current session",
		Description: `Show where the session comes from and the account metadata Kagi puts
in its tokens. Uses a cached token when one is still valid, otherwise
mints one.`,
		Usage:  "kagi whoami [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fault.Validation("whoami takes no arguments")
			}
			env, err := newEnvironment(streams, &params, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			bearer, err := env.client.Credential(ctx)
			if err != nil {
				return err
			}
			output := whoamiOutput{
				SessionSource:      string(env.source),
				SessionFingerprint: env.session.Fingerprint(),
				SubjectID:          bearer.Account.SubjectID,
				AccountType:        bearer.Account.AccountType,
				Subscription:       bearer.Account.Subscription,
				LoggedIn:           bearer.Account.LoggedIn,
				TokenIssuedAt:      bearer.IssuedAt.UTC(),
				TokenExpiresAt:     bearer.ExpiresAt.UTC(),
			}
			if env.cache != nil {
				output.TokenCache = env.cache.Path()
			}
			return writeWhoami(streams.Out, env.format, output)
		},
	}
}

func writeWhoami(w io.Writer, format render.Format, output whoamiOutput) error {
	switch format {
	case render.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	case render.FormatCSV:
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"field", "value"}); err != nil {
			return err
		}
		return writer.WriteAll(output.rows())
	case render.FormatMarkdown:
		if _, err := fmt.Fprint(w, "| Field | Value |\n|---|---|\n"); err != nil {
			return err
		}
		for _, row := range output.rows() {
			if _, err := fmt.Fprintf(w, "| %s | %s |\n", row[0], row[1]); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, row := range output.rows() {
			if row[1] != "" {
				fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
			}
		}
		return tw.Flush()
	}
}
