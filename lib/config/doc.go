// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the kagi CLI's configuration file.
//
// The file is found at $KAGI_CONFIG, or at config.yaml under the user
// configuration directory ($XDG_CONFIG_HOME/kagi on Linux). A missing
// default file is not an error: [Default] applies. A KAGI_CONFIG that
// names a missing file is, so a typo never silently falls back.
//
// YAML is the native format. A file whose name ends in .json or .jsonc
// is read as JSON with comments and trailing commas allowed.
//
// After loading, ${VAR} and ${VAR:-default} in string values are
// expanded from the environment. [LoadDotenv] feeds .env files into the
// environment first, without overriding variables already set.
//
// Key exports:
//
//   - [Config] -- session, endpoints, timeouts and per-command defaults
//   - [Default] -- the configuration used when no file exists
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [SessionFilePath] -- where kagi login keeps the session cookie
//
// This package depends on no other kagi packages.
package config
