// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/ledger"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/runstats"
	"github.com/jeffbrennan/mario/lib/runwatch"
)

type waitParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Last     bool          `json:"last"     flag:"last"     desc:"wait for the runs started by the most recent \"mario pipeline run\""`
	Interval time.Duration `json:"interval" flag:"interval" desc:"poll interval per run" default:"15s"`
	Timeout  time.Duration `json:"timeout"  flag:"timeout"  desc:"give up after this long (0 waits indefinitely)"`
}

type waitEntry struct {
	RunID    string        `json:"run_id"`
	Pipeline string        `json:"pipeline"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Message  string        `json:"message,omitempty"`
}

func waitCommand() *cli.Command {
	var params waitParams

	return &cli.Command{
		Name:    "wait",
		Summary: "Wait for runs to finish",
		Usage:   "mario runs wait [run-id...] [flags]",
		Description: `Poll each run until it reaches Succeeded, Failed or Cancelled, printing
every status change. Runs are polled concurrently.

Exits 0 when every run succeeded and 1 when any run failed or was
cancelled. A poll error or --timeout is reported as an error.`,
		Examples: []cli.Example{
			{
				Description: "Wait for the last batch of runs",
				Command:     "mario runs wait --last",
			},
			{
				Description: "Wait for one run, at most ten minutes",
				Command:     "mario runs wait 2f1c9a8e-5b6d-4e3f-9a7b-0c1d2e3f4a5b --timeout 10m",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("wait", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			switch {
			case params.Last && len(args) > 0:
				return cli.Validation("--last and run IDs are mutually exclusive")
			case !params.Last && len(args) == 0:
				return cli.Validation("usage: mario runs wait [run-id...] [flags] (or --last)")
			case params.Interval <= 0:
				return cli.Validation("--interval must be positive")
			}

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}

			ids := args
			if params.Last {
				batch, err := ledger.Open(connection.Config.Paths.State).Latest(connection.Environment.SubscriptionID, connection.Environment.String())
				if err != nil {
					if errors.Is(err, ledger.ErrNoBatch) {
						return cli.NotFound("%w; start runs with \"mario pipeline run\" first", err)
					}
					return cli.Internal("%w", err)
				}
				ids = batch.RunIDs()
				logger.Debug("waiting for recorded batch", "triggered_at", batch.TriggeredAt, "runs", len(ids))
			}
			ids = lo.Uniq(ids)

			if params.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, params.Timeout)
				defer cancel()
			}

			printer := render.New(cli.Stdout)
			result, err := runwatch.Watch(ctx, connection.Service, ids, runwatch.Options{
				Interval: params.Interval,
				Clock:    cli.Clock,
				OnChange: func(update runwatch.Update) {
					logger.Debug("run status changed", "run_id", update.RunID, "previous", update.Previous, "status", update.Status)
					if params.OutputJSON {
						return
					}
					printer.Printf("%s %s %s %s\n",
						cli.Clock.Now().Format(render.TimeLayout),
						printer.Accent(update.Pipeline),
						update.RunID,
						printer.Status(update.Status),
					)
				},
			})
			if err != nil {
				switch {
				case errors.Is(err, context.DeadlineExceeded):
					return cli.Transient("timed out after %s waiting for %d run(s)", params.Timeout, len(ids)-len(result))
				case factory.IsNotFound(err):
					return cli.NotFound("%w", err)
				}
				return cli.Remote(err, "waiting for runs")
			}

			entries := lo.Map(ids, func(id string, _ int) waitEntry {
				run := result[id]
				return waitEntry{
					RunID:    id,
					Pipeline: lo.FromPtr(run.PipelineName),
					Status:   lo.FromPtr(run.Status),
					Duration: runstats.Duration(run),
					Message:  lo.FromPtr(run.Message),
				}
			})
			unsuccessful := result.Unsuccessful(ids)

			if done, err := params.EmitJSON(entries); done {
				if err != nil {
					return err
				}
			} else {
				printWaitResult(printer, entries, len(unsuccessful))
			}
			if len(unsuccessful) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func printWaitResult(printer *render.Printer, entries []waitEntry, unsuccessful int) {
	rows := lo.Map(entries, func(entry waitEntry, _ int) []string {
		return []string{entry.Pipeline, entry.RunID, printer.Status(entry.Status), render.Duration(entry.Duration)}
	})
	printer.Printf("\n%s", printer.Table([]string{"PIPELINE", "RUN ID", "STATUS", "DURATION"}, rows))

	if unsuccessful == 0 {
		printer.Printf("%s all %d run(s) succeeded\n", printer.Mark(true), len(entries))
		return
	}
	printer.Printf("%s %d of %d run(s) did not succeed\n", printer.Mark(false), unsuccessful, len(entries))
	for _, entry := range entries {
		if entry.Status != factory.StatusSucceeded && entry.Message != "" {
			printer.Printf("  %s: %s\n", entry.Pipeline, entry.Message)
		}
	}
}
