// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds sensitive values (the Kagi session cookie) in
// memory that the Go runtime never sees.
//
// [Buffer] memory comes from an anonymous mmap, is locked against swap
// with mlock and excluded from core dumps with MADV_DONTDUMP. Close
// zeroes, unlocks and unmaps it; reading a closed Buffer panics.
//
// Depends on golang.org/x/sys/unix only.
package secret
