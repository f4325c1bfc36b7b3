// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/tokencache"
)

type loginParams struct {
	cli.ConfigParams
	NoVerify bool `flag:"no-verify" desc:"save the session without checking it with Kagi"`
}

func loginCommand(streams Streams) *cli.Command {
	var params loginParams
	return &cli.Command{
		Name:    "login",
		Summary: "Save your kagi_session cookie",
		Description: `Save the kagi_session cookie of a signed-in browser for later commands.

Copy the cookie's value from your browser's developer tools on kagi.com.
On a terminal it is typed without echo; otherwise the first line of
stdin is read. The session is checked by minting a token with it, then
saved to $KAGI_SESSION_FILE, the session_file configuration key, or
~/.config/kagi/session, readable only by you.`,
		Usage: "kagi login [flags]",
		Examples: []cli.Example{
			{Description: "Paste the cookie at the prompt", Command: "kagi login"},
			{Description: "Read the cookie from a password manager", Command: "pass show kagi/session | kagi login"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fault.Validation("login takes no arguments; the session is read from the terminal or stdin")
			}
			cfg, err := loadConfig(&params.ConfigParams)
			if err != nil {
				return err
			}
			path, err := cfg.SessionFilePath()
			if err != nil {
				return err
			}

			session, err := cli.PromptSession(streams.In, streams.Err)
			if err != nil {
				return err
			}
			defer session.Close()
			logger = logger.With("session", session)

			if !params.NoVerify {
				client, _, err := newClient(cfg, session, logger)
				if err != nil {
					return err
				}
				bearer, err := client.Credential(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(streams.Err, "Session verified (%s)\n", describeAccount(bearer.Account.AccountType, bearer.Account.Subscription))
			}

			if err := cli.SaveSession(path, session); err != nil {
				return err
			}
			fmt.Fprintf(streams.Err, "Session saved to %s\n", path)
			return nil
		},
	}
}

// describeAccount is a short phrase for the account a token belongs
// to, e.g. "ultimate account, subscribed".
func describeAccount(accountType string, subscription bool) string {
	description := "Kagi account"
	if accountType != "" {
		description = accountType + " account"
	}
	if subscription {
		return description + ", subscribed"
	}
	return description + ", no subscription"
}

type logoutParams struct {
	cli.ConfigParams
	KeepCache bool `flag:"keep-cache" desc:"leave cached tokens in place"`
}

func logoutCommand(streams Streams) *cli.Command {
	var params logoutParams
	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the saved session and cached tokens",
		Usage:   "kagi logout [flags]",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fault.Validation("logout takes no arguments")
			}
			cfg, err := loadConfig(&params.ConfigParams)
			if err != nil {
				return err
			}
			path, err := cfg.SessionFilePath()
			if err != nil {
				return err
			}

			removed, err := cli.RemoveSession(path)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(streams.Err, "Removed %s\n", path)
			} else {
				fmt.Fprintf(streams.Err, "No saved session at %s\n", path)
			}

			if params.KeepCache {
				return nil
			}
			dir, err := tokencache.DefaultDir()
			if err != nil {
				return err
			}
			purged, err := tokencache.Purge(dir)
			if err != nil {
				return fmt.Errorf("removing cached tokens: %w", err)
			}
			logger.Debug("token cache purged", "dir", dir, "files", purged)
			if purged > 0 {
				fmt.Fprintf(streams.Err, "Removed %d cached token(s)\n", purged)
			}
			return nil
		},
	}
}
