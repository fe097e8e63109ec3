// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
)

const shellPrompt = "mario> "

// shellCommand runs each input line as a mario command line. build
// returns a fresh command tree per line so flag values never carry over
// from one command to the next.
func shellCommand(build func() *cli.Command) *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Summary: "Run mario commands in an interactive session",
		Usage:   "mario shell",
		Description: `Read commands from the terminal and run each as if it followed "mario"
on the command line, without restarting between commands. A failing
command prints its error and the session continues.

Type "exit" or "quit", send end of input (Ctrl-D), or interrupt
(Ctrl-C) to leave. Arguments are split on whitespace; quoting is not
supported.`,
		Examples: []cli.Example{
			{
				Description: "Start a session, then type e.g. \"runs summarize --days 3\"",
				Command:     "mario shell",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			prompter, err := cli.NewPrompter("pass the command to mario directly")
			if err != nil {
				return err
			}

			for {
				line, err := readLine(ctx, prompter)
				switch {
				case errors.Is(err, io.EOF):
					return nil
				case ctx.Err() != nil:
					fmt.Fprintln(cli.Stderr, "stopping mario")
					return nil
				case err != nil:
					return err
				}

				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				switch fields[0] {
				case "exit", "quit":
					return nil
				case "shell":
					fmt.Fprintln(cli.Stderr, "already in a mario shell")
					continue
				}

				logger.Debug("shell command", "args", fields)
				if err := build().Execute(ctx, fields, logger); err != nil {
					if _, handled := err.(interface{ ExitCode() int }); !handled {
						fmt.Fprintf(cli.Stderr, "error: %v\n", err)
					}
				}
			}
		},
	}
}

// readLine waits for the next input line or for ctx to end, whichever
// comes first. A read still pending at cancellation is abandoned.
func readLine(ctx context.Context, prompter *cli.Prompter) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := prompter.Line(shellPrompt)
		done <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case read := <-done:
		return read.line, read.err
	}
}
