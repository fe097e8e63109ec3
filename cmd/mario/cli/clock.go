// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/jeffbrennan/mario/lib/clock"

// Clock is the time source for commands: run query windows, ledger
// timestamps, and run polling. Tests replace it with clock.Fake.
var Clock clock.Clock = clock.Real()
