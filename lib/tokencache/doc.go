// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package tokencache persists bearer credentials between CLI runs so a
// burst of invocations does not mint a token each time.
//
// Each session identity gets one file, named by a BLAKE3 digest of the
// identity, holding a single CBOR record encrypted with age under a
// scrypt recipient whose passphrase is the identity itself. Reading the
// cache therefore requires the same session that wrote it, and a file
// copied off the machine is useless without the cookie.
//
// Loading never fails: a missing, undecryptable, malformed or expired
// file is a miss, and the caller mints a fresh token. [Cache] satisfies
// credential.Cache.
package tokencache
