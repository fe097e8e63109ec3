// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package runs implements the "mario runs" subcommands, which report on
// and control pipeline runs.
package runs

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/runstats"
)

// DefaultDays is the query window used when --days is not given.
const DefaultDays = 7

// Command returns the "runs" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "runs",
		Summary: "Summarize, chart, wait for, and cancel pipeline runs",
		Description: `Inspect the pipeline runs of a data factory.

Queries cover the runs updated in the last --days days (1 to 30, default
7). "wait" follows runs until they finish; with --last it follows the
runs started by the most recent "mario pipeline run" against the same
factory.`,
		Subcommands: []*cli.Command{
			summarizeCommand(),
			timeseriesCommand(),
			waitCommand(),
			cancelCommand(),
			historyCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Summarize the last two weeks",
				Command:     "mario runs summarize --days 14",
			},
			{
				Description: "Wait for the runs just started",
				Command:     "mario pipeline run && mario runs wait --last",
			},
		},
	}
}

// queryRuns fetches the runs in the window ending now.
func queryRuns(ctx context.Context, runs factory.Runs, days int, pipeline string) (factory.RunQuery, []*armdatafactory.PipelineRun, error) {
	query, err := runstats.Window(cli.Clock.Now(), days)
	if err != nil {
		return query, nil, cli.Validation("--days: %w", err)
	}
	query.PipelineName = pipeline
	found, err := runs.QueryRuns(ctx, query)
	if err != nil {
		return query, nil, cli.Remote(err, "querying runs")
	}
	return query, found, nil
}
