// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/pipelinedef"
	"github.com/jeffbrennan/mario/lib/render"
)

type showParams struct {
	cli.FactoryConnection
	Path string `json:"path" flag:"path" desc:"JSONPath expression selecting part of the definition, e.g. $.properties.activities[*].name"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print one pipeline's definition",
		Usage:   "mario pipeline show <name> [flags]",
		Description: `Fetch a pipeline from the factory and print its definition in the
same form "pipeline export" writes: indented JSON without the
server-assigned id, etag and type fields. Output is syntax highlighted
on a color terminal.

With --path, only the part selected by a JSONPath expression is
printed.`,
		Examples: []cli.Example{
			{
				Description: "Print a definition",
				Command:     "mario pipeline show copy_iris",
			},
			{
				Description: "Print the activity types",
				Command:     "mario pipeline show copy_iris --path '$.properties.activities[*].type'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: mario pipeline show <name> [flags]")
			}
			name := args[0]

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			resource, err := connection.Service.GetPipeline(ctx, name)
			if err != nil {
				if factory.IsNotFound(err) {
					return cli.NotFound("pipeline %q not found in %s", name, connection.Environment)
				}
				return cli.Remote(err, "fetching pipeline")
			}

			data, err := pipelinedef.Format(resource)
			if err != nil {
				return cli.Internal("formatting pipeline %q: %w", name, err)
			}
			if params.Path != "" {
				data, err = render.Select(data, params.Path)
				if err != nil {
					return cli.Validation("--path: %w", err)
				}
			}

			printer := render.New(cli.Stdout)
			printer.Printf("%s", printer.HighlightJSON(data))
			return nil
		},
	}
}
