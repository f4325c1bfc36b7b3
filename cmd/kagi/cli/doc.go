// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the kagi binary:
// a tree of [Command] values dispatched by name, flags bound from
// tagged parameter structs with pflag, a per-command slog logger, and
// the mapping from fault kinds to process exit codes.
//
// A command declares its parameters as a struct and hands a pointer to
// it through Params. Embedding [CommonParams] (or just [ConfigParams])
// gives it the shared flags and lets Execute configure logging:
//
//	type askParams struct {
//	    cli.CommonParams
//	    Model string `flag:"model,m" desc:"assistant model"`
//	}
package cli
