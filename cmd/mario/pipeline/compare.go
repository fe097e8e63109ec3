// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/compare"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/pipelinedef"
	"github.com/jeffbrennan/mario/lib/render"
)

type compareParams struct {
	cli.FactoryConnection
	cli.JSONOutput
}

func compareCommand() *cli.Command {
	var params compareParams

	return &cli.Command{
		Name:    "compare",
		Summary: "Show the differences between two pipeline definitions",
		Usage:   "mario pipeline compare <a> <b> [flags]",
		Description: `Compare two pipelines field by field. Each argument is either the
path of a local definition file or the name of a pipeline in the
factory; remote pipelines are fetched concurrently.

Names and server-assigned fields are ignored, so a pipeline compared
with a renamed copy of itself has no differences. Exits non-zero only
on error, not when differences are found.`,
		Examples: []cli.Example{
			{
				Description: "Compare two deployed pipelines",
				Command:     "mario pipeline compare copy_iris copy_penguins",
			},
			{
				Description: "Check a local edit against the deployed version",
				Command:     "mario pipeline compare pipelines/copy_iris.json copy_iris",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("compare", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("usage: mario pipeline compare <a> <b> [flags]")
			}

			resources := make([]*armdatafactory.PipelineResource, 2)
			var remote []int
			for i, arg := range args {
				if !isLocalFile(arg) {
					remote = append(remote, i)
					continue
				}
				definition, err := pipelinedef.ReadFile(arg)
				if err != nil {
					return cli.Validation("%w", err)
				}
				resources[i] = &definition.Resource
			}

			if len(remote) > 0 {
				connection, err := params.Connect(ctx, logger)
				if err != nil {
					return err
				}
				group, groupCtx := errgroup.WithContext(ctx)
				for _, index := range remote {
					group.Go(func() error {
						resource, err := connection.Service.GetPipeline(groupCtx, args[index])
						if err != nil {
							if factory.IsNotFound(err) {
								return cli.NotFound("pipeline %q not found in %s", args[index], connection.Environment)
							}
							return cli.Remote(err, "fetching pipeline")
						}
						resources[index] = resource
						return nil
					})
				}
				if err := group.Wait(); err != nil {
					return err
				}
			}

			result, err := compare.Diff(resources[0], resources[1])
			if err != nil {
				return cli.Internal("comparing pipelines: %w", err)
			}
			result.Left, result.Right = args[0], args[1]

			if done, err := params.EmitJSON(result); done {
				return err
			}
			printComparison(render.New(cli.Stdout), result)
			return nil
		},
	}
}

// isLocalFile reports whether arg names an existing regular file.
// Pipeline names cannot contain "/" or ".", so a path is never mistaken
// for a name.
func isLocalFile(arg string) bool {
	info, err := os.Stat(arg)
	return err == nil && info.Mode().IsRegular()
}

func printComparison(printer *render.Printer, result *compare.Result) {
	printer.Printf("\n%s\n", printer.Header("COMPARE"))
	printer.Printf("[ %s ] %s | %s\n", printer.Mark(result.Equal()), printer.Accent(result.Left), printer.Accent(result.Right))
	if result.Equal() {
		printer.Println(printer.Success("No differences found"))
		printer.Println(printer.Header(""))
		return
	}

	printer.Printf("\n%s\n", printer.Failure("Differences found"))
	for i, difference := range result.Differences {
		printer.Printf("[%d/%d] %s\n", i+1, len(result.Differences), difference.Path)
		printer.Printf("      %s != %s\n", difference.Left, difference.Right)
	}
	if len(result.Differences) >= compare.MaxDifferences {
		printer.Printf("(stopped after %d differences)\n", compare.MaxDifferences)
	}
	printer.Println(printer.Header(""))
}
