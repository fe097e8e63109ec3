// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/runstats"
)

type listParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Name string `json:"name" flag:"name,n" desc:"only list pipelines whose name contains this substring"`
}

type listEntry struct {
	Name        string `json:"name"`
	Folder      string `json:"folder"`
	Activities  int    `json:"activities"`
	Description string `json:"description,omitempty"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the pipelines registered in the factory",
		Usage:   "mario pipeline list [flags]",
		Description: `List every named pipeline in the factory with its folder and activity
count, sorted by name. Pipelines outside any folder are shown under
"root".`,
		Examples: []cli.Example{
			{
				Description: "List all pipelines",
				Command:     "mario pipeline list",
			},
			{
				Description: "List copy pipelines as JSON",
				Command:     "mario pipeline list --name copy --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
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
			entries := listEntries(pipelines, params.Name)

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			printer := render.New(cli.Stdout)
			if len(entries) == 0 {
				printer.Println("No pipelines found.")
				return nil
			}
			rows := make([][]string, len(entries))
			for i, entry := range entries {
				rows[i] = []string{entry.Name, entry.Folder, strconv.Itoa(entry.Activities), entry.Description}
			}
			printer.Printf("%s", printer.Table([]string{"NAME", "FOLDER", "ACTIVITIES", "DESCRIPTION"}, rows))
			return nil
		},
	}
}

func listEntries(pipelines []*armdatafactory.PipelineResource, filter string) []listEntry {
	var entries []listEntry
	for _, pipeline := range pipelines {
		if pipeline == nil || pipeline.Name == nil || *pipeline.Name == "" {
			continue
		}
		if !strings.Contains(*pipeline.Name, filter) {
			continue
		}
		entry := listEntry{Name: *pipeline.Name, Folder: runstats.Folder(pipeline)}
		if pipeline.Properties != nil {
			entry.Activities = len(pipeline.Properties.Activities)
			if pipeline.Properties.Description != nil {
				entry.Description = *pipeline.Properties.Description
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
