// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package kagi runs Kagi operations (proofread, summarize, ask,
// search) and folds their streamed responses into a [Result].
//
// [Client.RunOperation] is the single entry point. It validates the
// [Request] before touching the network, obtains a bearer credential
// from the shared [credential.Store] (refreshing it proactively when it
// is about to expire), sends the request, retries exactly once if Kagi
// rejects the credential, and decodes the response with the matching
// [stream] decoder. Text deltas are passed to the caller's callback as
// they arrive; the Result is returned only once the stream completes.
//
// Every failure carries a [fault.Kind]: validation for bad input or a
// request Kagi refused, auth for a rejected session, network for
// transport failures and timeouts, stream for malformed responses, and
// cancelled when the caller's context ends.
package kagi
