// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Every component with a deadline (credential staleness, the
// time-to-first-byte watchdog, the inter-event idle watchdog) takes a
// Clock instead of calling the time package directly. Real() is the
// production implementation; Fake() only moves when Advance is called.
//
// Tests that race a goroutine arming a timer against Advance use
// WaitForTimers to block until the timer exists:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go consume(fake)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Minute)
package clock
