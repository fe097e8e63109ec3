// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/runstats"
)

type summarizeParams struct {
	cli.FactoryConnection
	cli.JSONOutput
}

type summarizeResult struct {
	Factory string                   `json:"factory"`
	Folders []runstats.FolderSummary `json:"folders"`
}

func summarizeCommand() *cli.Command {
	var params summarizeParams

	return &cli.Command{
		Name:    "summarize",
		Summary: "Count pipelines and activities per folder",
		Usage:   "mario pipeline summarize [flags]",
		Description: `Group the factory's pipelines by folder and count, per folder, the
pipelines, all activities, Copy activities and DatabricksNotebook
activities. Pipelines outside any folder are counted under "root".`,
		Examples: []cli.Example{
			{
				Description: "Summarize the factory",
				Command:     "mario pipeline summarize",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("summarize", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			pipelines, err := connection.Service.ListPipelines(ctx)
			if err != nil {
				return cli.Remote(err, "listing pipelines in %s", connection.Environment)
			}
			folders := runstats.SummarizeFolders(pipelines)

			if done, err := params.EmitJSON(summarizeResult{Factory: connection.Environment.String(), Folders: folders}); done {
				return err
			}

			printer := render.New(cli.Stdout)
			printer.Printf("\n%s\n", printer.Header("SUMMARIZE"))
			printer.Printf("factory: %s\n\n", connection.Target.FactoryName)
			rows := make([][]string, len(folders))
			for i, folder := range folders {
				rows[i] = []string{
					folder.Folder,
					strconv.Itoa(folder.Pipelines),
					strconv.Itoa(folder.Activities),
					strconv.Itoa(folder.CopyActivities),
					strconv.Itoa(folder.DatabricksNotebookActivities),
				}
			}
			printer.Printf("%s", printer.Table([]string{"FOLDER", "PIPELINES", "ACTIVITIES", "COPY", "DATABRICKS"}, rows))
			printer.Println(printer.Header(""))
			return nil
		},
	}
}
