// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault classifies failures so that callers branch on the kind
// of an error rather than its message text.
//
// Every error leaving the credential, stream and kagi packages is (or
// wraps) an *Error carrying one of five kinds. The CLI maps kinds to
// exit codes; embedding callers use [KindOf] or [Is].
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	// KindValidation: the caller's input is malformed. Never reaches
	// the network and is not retried.
	KindValidation Kind = "validation"

	// KindAuth: the session identity was rejected, or the operation
	// was rejected again after one refresh. The operator must supply a
	// fresh session.
	KindAuth Kind = "auth"

	// KindNetwork: transport failure, upstream error status, or a
	// timeout (time to first byte, inter-event idle).
	KindNetwork Kind = "network"

	// KindStream: the response stream was malformed or ended early.
	KindStream Kind = "stream"

	// KindCancelled: the caller aborted the operation.
	KindCancelled Kind = "cancelled"
)

// Error is a classified error. Err carries the human-readable message
// and the underlying cause chain.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Validation creates a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// Auth creates a KindAuth error.
func Auth(format string, args ...any) *Error {
	return &Error{Kind: KindAuth, Err: fmt.Errorf(format, args...)}
}

// Network creates a KindNetwork error.
func Network(format string, args ...any) *Error {
	return &Error{Kind: KindNetwork, Err: fmt.Errorf(format, args...)}
}

// Stream creates a KindStream error.
func Stream(format string, args ...any) *Error {
	return &Error{Kind: KindStream, Err: fmt.Errorf(format, args...)}
}

// Cancelled creates a KindCancelled error.
func Cancelled(format string, args ...any) *Error {
	return &Error{Kind: KindCancelled, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or ""
// if there is none.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromContext classifies the end of ctx: a deadline is a network
// timeout, anything else is a cancellation. The context's cause is
// wrapped so errors.Is still finds it.
func FromContext(ctx context.Context, action string) *Error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Network("%s: %w", action, cause)
	}
	return Cancelled("%s: %w", action, cause)
}
