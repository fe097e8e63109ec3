// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the two time operations mario depends on:
// reading the current time (run query windows, ledger timestamps) and
// waiting between polls (run watching). Production code injects Real();
// tests inject Fake() and advance time explicitly.
package clock

import "time"

// Clock is the time source used by run analysis and run watching.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
