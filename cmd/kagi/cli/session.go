// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/config"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/secret"
)

// SessionSource records where a session identity was found.
type SessionSource string

const (
	SourceFlag        SessionSource = "flag"
	SourceEnvironment SessionSource = "environment"
	SourceConfig      SessionSource = "config"
	SourceFile        SessionSource = "session file"
)

// ResolveSession finds the session identity: the --session value
// (read from stdin when "-"), then KAGI_SESSION, then the
// configuration's session key, then the file saved by kagi login. A
// missing session is an auth fault telling the operator how to supply
// one.
func ResolveSession(flagValue string, cfg *config.Config, stdin io.Reader) (*credential.SessionIdentity, SessionSource, error) {
	var (
		buffer *secret.Buffer
		source SessionSource
		err    error
	)
	switch {
	case flagValue == "-":
		buffer, err = secret.ReadLine(stdin)
		source = SourceFlag
	case flagValue != "":
		buffer, err = secret.NewFromString(flagValue)
		source = SourceFlag
	case os.Getenv(config.EnvSession) != "":
		buffer, err = secret.NewFromString(os.Getenv(config.EnvSession))
		source = SourceEnvironment
	case cfg.Session != "":
		buffer, err = secret.NewFromString(cfg.Session)
		source = SourceConfig
	default:
		path, pathErr := cfg.SessionFilePath()
		if pathErr != nil {
			return nil, "", pathErr
		}
		buffer, err = secret.ReadFromPath(path)
		source = SourceFile
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fault.Auth("no Kagi session: run \"kagi login\", set %s, or pass --session", config.EnvSession)
		}
		if err != nil {
			return nil, "", fault.Auth("reading session file %s: %w", path, err)
		}
	}
	if err != nil {
		return nil, "", fault.Validation("reading session from %s: %w", source, err)
	}
	return credential.NewSessionIdentity(buffer), source, nil
}

// PromptSession reads a session value from in. On a terminal the value
// is typed without echo after a prompt on prompt; otherwise the first
// line of in is used.
func PromptSession(in io.Reader, prompt io.Writer) (*credential.SessionIdentity, error) {
	file, isFile := in.(*os.File)
	if !isFile || !term.IsTerminal(int(file.Fd())) {
		buffer, err := secret.ReadLine(in)
		if err != nil {
			return nil, fault.Validation("reading session: %w", err)
		}
		return credential.NewSessionIdentity(buffer), nil
	}

	fmt.Fprint(prompt, "kagi_session cookie: ")
	value, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	buffer, err := secret.NewFromBytes(value)
	if err != nil {
		return nil, fault.Validation("reading session: %w", err)
	}
	return credential.NewSessionIdentity(buffer), nil
}

// SaveSession writes the session value to path, owner-only, replacing
// any previous file atomically.
func SaveSession(path string, identity *credential.SessionIdentity) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	temporary, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	defer os.Remove(temporary.Name())

	data := append(append([]byte(nil), identity.Secret()...), '\n')
	defer secret.Zero(data)
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("saving session file: %w", err)
	}
	return nil
}

// RemoveSession deletes the session file at path and reports whether
// one existed.
func RemoveSession(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing session file: %w", err)
	}
	return true, nil
}
