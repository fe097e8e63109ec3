// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an error
// line. The command has already written its own output: "runs wait"
// returns ExitError{Code: 1} after listing the runs that did not
// succeed, and "config show --check" does the same for a target that
// does not resolve.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this method to tell
// a handled non-zero exit from an error that still needs printing.
func (e *ExitError) ExitCode() int {
	return e.Code
}
