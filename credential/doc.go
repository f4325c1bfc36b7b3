// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential keeps a short-lived Kagi bearer token fresh.
//
// A [SessionIdentity] (the long-lived kagi_session cookie) is exchanged
// for a [Credential] by the [Refresher]. The [Store] holds the current
// Credential and decides when it is stale; its Valid method refreshes
// proactively, before a dependent request, and coalesces concurrent
// refreshes into one call.
//
// Tokens are JWTs whose claims are decoded without verifying the
// signature: the server that issued them over TLS is the only party
// that can. The claims are still validated structurally (expiry, issue
// time, subject) before a Credential is built.
package credential
