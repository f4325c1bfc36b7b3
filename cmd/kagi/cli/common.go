// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kagi-cli/kagi/lib/fault"
)

// Live view modes for --live.
const (
	LiveAuto = "auto"
	LiveOn   = "on"
	LiveOff  = "off"
)

// ConfigParams are the flags of every command that reads the
// configuration. Embed it in a command's parameter struct.
type ConfigParams struct {
	Config  string
	EnvFile string
	Verbose bool
}

// VerboseLogging reports --verbose; Execute uses it to pick the log
// level.
func (p *ConfigParams) VerboseLogging() bool { return p.Verbose }

// AddFlags implements [FlagBinder].
func (p *ConfigParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.Config, "config", "", "configuration file (default $KAGI_CONFIG or ~/.config/kagi/config.yaml)")
	flagSet.StringVar(&p.EnvFile, "env-file", "", "load environment variables from this file instead of ./.env")
	flagSet.BoolVar(&p.Verbose, "verbose", false, "log requests and token refreshes to stderr")
}

// CommonParams are the flags shared by every command that talks to
// Kagi and prints a result.
type CommonParams struct {
	ConfigParams
	Format  string
	Session string
	Live    string
}

// AddFlags implements [FlagBinder]. --live takes an optional value, so
// a bare --live forces the view on.
func (p *CommonParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&p.Format, "format", "F", "", "output format: console, json, md or csv (default from config, else console)")
	flagSet.StringVar(&p.Session, "session", "", "kagi_session cookie value, or - to read it from stdin")
	flagSet.StringVar(&p.Live, "live", LiveAuto, "live progress view on stderr: auto, on or off")
	flagSet.Lookup("live").NoOptDefVal = LiveOn
	p.ConfigParams.AddFlags(flagSet)
}

// WantLive decides whether to draw a live view on stderr. auto draws
// one only on a terminal and never with --verbose, whose log lines
// would fight the view for the screen.
func (p *CommonParams) WantLive(stderr io.Writer) (bool, error) {
	switch strings.ToLower(p.Live) {
	case LiveAuto, "":
		return !p.Verbose && IsTerminal(stderr), nil
	case LiveOn, "true", "always":
		return true, nil
	case LiveOff, "false", "never":
		return false, nil
	default:
		return false, fault.Validation("--live must be auto, on or off, got %q", p.Live)
	}
}
