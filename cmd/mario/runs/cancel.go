// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runs

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/render"
)

type cancelParams struct {
	cli.FactoryConnection
	Recursive bool `json:"recursive" flag:"recursive,r" desc:"also cancel runs this run started through Execute Pipeline activities"`
}

func cancelCommand() *cli.Command {
	var params cancelParams

	return &cli.Command{
		Name:    "cancel",
		Summary: "Cancel an in-progress run",
		Usage:   "mario runs cancel <run-id> [flags]",
		Description: `Ask the service to cancel a pipeline run. The run moves to Canceling
and then Cancelled; use "mario runs wait <run-id>" to follow it.`,
		Examples: []cli.Example{
			{
				Description: "Cancel a run and the runs it started",
				Command:     "mario runs cancel 2f1c9a8e-5b6d-4e3f-9a7b-0c1d2e3f4a5b --recursive",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("cancel", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: mario runs cancel <run-id> [flags]")
			}
			runID := args[0]

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			if err := connection.Service.CancelRun(ctx, runID, params.Recursive); err != nil {
				if factory.IsNotFound(err) {
					return cli.NotFound("run %s not found in %s", runID, connection.Environment)
				}
				return cli.Remote(err, "cancelling run")
			}
			logger.Info("cancelled run", "run_id", runID, "recursive", params.Recursive)
			render.New(cli.Stdout).Printf("cancel requested: %s\n", runID)
			return nil
		},
	}
}
