// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/render"
)

type deleteParams struct {
	cli.FactoryConnection
	IgnoreMissing bool `json:"ignore_missing" flag:"ignore-missing" desc:"succeed when the pipeline does not exist"`
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete one pipeline from the factory",
		Usage:   "mario pipeline delete <name> [flags]",
		Description: `Delete a pipeline by name. The pipeline is looked up first so a
mistyped name is reported instead of silently succeeding; pass
--ignore-missing to treat an absent pipeline as already deleted.

Run history is kept by the service and is not affected.`,
		Examples: []cli.Example{
			{
				Description: "Delete a pipeline",
				Command:     "mario pipeline delete copy_iris_old",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: mario pipeline delete <name> [flags]")
			}
			name := args[0]

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			printer := render.New(cli.Stdout)

			if _, err := connection.Service.GetPipeline(ctx, name); err != nil {
				if !factory.IsNotFound(err) {
					return cli.Remote(err, "looking up pipeline")
				}
				if !params.IgnoreMissing {
					return cli.NotFound("pipeline %q not found in %s", name, connection.Environment)
				}
				printer.Printf("pipeline %s does not exist\n", name)
				return nil
			}

			if err := connection.Service.DeletePipeline(ctx, name); err != nil {
				return cli.Remote(err, "deleting from %s", connection.Environment)
			}
			logger.Info("deleted pipeline", "pipeline", name, "factory", connection.Environment.String())
			printer.Printf("deleted pipeline: %s\n", name)
			return nil
		},
	}
}
