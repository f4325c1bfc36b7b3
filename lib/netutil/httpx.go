// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil carries the HTTP plumbing shared by the credential
// refresher and the operation client: bounded body reads, and
// [Send], which runs a request under a time-to-first-byte watchdog and
// classifies transport failures with the fault taxonomy.
//
// The bounded readers are for JSON documents and error bodies. Streaming
// bodies are consumed incrementally by the stream package.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize bounds JSON document reads.
const MaxResponseSize int64 = 16 << 20

// maxErrorBody bounds how much of an error response is kept for
// diagnostics.
const maxErrorBody int64 = 4 << 10

// ReadResponse reads a JSON document body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxResponseSize)
	}
	return data, nil
}

// ErrorBody reads up to maxErrorBody bytes of an error response body and
// returns it trimmed, for diagnostic error messages. Read errors are
// ignored: a partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// ReadError is a failure to read a body, as opposed to a body that was
// read but did not decode.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "reading response body: " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// DecodeResponse reads a JSON document body and decodes it into v.
// Read failures are returned as *ReadError.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return &ReadError{Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
