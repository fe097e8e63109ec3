// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/cmd/mario/commands"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Commands that print their own result (runs wait, config show)
		// return an error carrying the exit code. Don't print a
		// redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	args, verbose := stripVerbose(args)
	logger := cli.NewCommandLogger(verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Root().Execute(ctx, args, logger)
}

// stripVerbose removes a leading --verbose or -v. The flag is global,
// so it is only recognized before the command name.
func stripVerbose(args []string) ([]string, bool) {
	if len(args) > 0 && (args[0] == "--verbose" || args[0] == "-v") {
		return args[1:], true
	}
	return args, false
}
