// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"encoding/hex"
	"log/slog"

	"github.com/zeebo/blake3"

	"github.com/kagi-cli/kagi/lib/secret"
)

// SessionIdentity is the operator's kagi_session cookie. The value lives
// in a secret.Buffer and is only revealed at the HTTP boundary.
// Formatting a SessionIdentity (fmt, slog) prints its fingerprint.
type SessionIdentity struct {
	buffer      *secret.Buffer
	fingerprint string
}

// NewSessionIdentity takes ownership of buffer.
func NewSessionIdentity(buffer *secret.Buffer) *SessionIdentity {
	digest := blake3.Sum256(buffer.Bytes())
	return &SessionIdentity{
		buffer:      buffer,
		fingerprint: hex.EncodeToString(digest[:6]),
	}
}

// ParseSessionIdentity copies value into protected memory.
func ParseSessionIdentity(value string) (*SessionIdentity, error) {
	buffer, err := secret.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return NewSessionIdentity(buffer), nil
}

// Reveal returns the cookie value.
func (s *SessionIdentity) Reveal() string { return s.buffer.String() }

// Secret returns the protected bytes. The slice is invalid after Close.
func (s *SessionIdentity) Secret() []byte { return s.buffer.Bytes() }

// Fingerprint is a short BLAKE3 digest of the value, stable across runs.
func (s *SessionIdentity) Fingerprint() string { return s.fingerprint }

func (s *SessionIdentity) String() string { return "session:" + s.fingerprint }

// LogValue implements slog.LogValuer.
func (s *SessionIdentity) LogValue() slog.Value { return slog.StringValue(s.fingerprint) }

// Close wipes the value.
func (s *SessionIdentity) Close() error { return s.buffer.Close() }
