// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/runmetrics"
	"github.com/jeffbrennan/mario/lib/runstats"
)

type summarizeParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Days        int    `json:"days"        flag:"days,d"     desc:"number of days to summarize (1-30)" default:"7"`
	Name        string `json:"name"        flag:"name,n"     desc:"only summarize pipelines whose name contains this substring"`
	Pushgateway string `json:"pushgateway" flag:"pushgateway" desc:"also push the summary as gauges to this Prometheus Pushgateway URL"`
	Job         string `json:"job"         flag:"job"         desc:"Pushgateway job name" default:"mario"`
}

type summarizeResult struct {
	Factory   string                `json:"factory"`
	Days      int                   `json:"days"`
	Pipelines []runstats.RunSummary `json:"pipelines"`
}

func summarizeCommand() *cli.Command {
	var params summarizeParams

	return &cli.Command{
		Name:    "summarize",
		Summary: "Count runs and runtime per pipeline",
		Usage:   "mario runs summarize [flags]",
		Description: `Query the runs updated in the last --days days and report, per
pipeline, the succeeded, failed and in-progress counts with total and
average runtime in minutes. The average covers finished runs only.

With --pushgateway, the same numbers are pushed as gauges grouped by
factory, replacing the previous push for that factory.`,
		Examples: []cli.Example{
			{
				Description: "Summarize the last week",
				Command:     "mario runs summarize",
			},
			{
				Description: "Summarize copy pipelines and publish the result",
				Command:     "mario runs summarize --name copy --pushgateway http://localhost:9091",
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
			query, found, err := queryRuns(ctx, connection.Service, params.Days, "")
			if err != nil {
				return err
			}
			logger.Debug("queried runs", "after", query.UpdatedAfter, "before", query.UpdatedBefore, "runs", len(found))

			summaries := runstats.FilterSummaries(runstats.Summarize(found), params.Name)

			if params.Pushgateway != "" {
				options := runmetrics.Options{URL: params.Pushgateway, Job: params.Job}
				if err := runmetrics.Push(ctx, options, connection.Target.FactoryName, summaries); err != nil {
					return cli.Transient("%w", err)
				}
				logger.Info("pushed run metrics", "url", params.Pushgateway, "pipelines", len(summaries))
			}

			if done, err := params.EmitJSON(summarizeResult{
				Factory:   connection.Environment.String(),
				Days:      params.Days,
				Pipelines: summaries,
			}); done {
				return err
			}
			printSummaries(render.New(cli.Stdout), summaries)
			return nil
		},
	}
}

func printSummaries(printer *render.Printer, summaries []runstats.RunSummary) {
	printer.Printf("\n%s\n", printer.Header("SUMMARIZE"))
	if len(summaries) == 0 {
		printer.Println("No pipeline runs found")
		printer.Println(printer.Header(""))
		return
	}

	rows := make([][]string, len(summaries))
	for i, summary := range summaries {
		rows[i] = []string{
			summary.Pipeline,
			fmt.Sprintf("%.2f", summary.AverageRuntimeMinutes),
			fmt.Sprintf("%.2f", summary.TotalRuntimeMinutes),
			printer.Count(summary.Succeeded, false),
			printer.Count(summary.Failed, true),
			fmt.Sprint(summary.InProgress + summary.Queued),
		}
	}
	headers := []string{"PIPELINE", "AVG (MIN)", "TOTAL (MIN)", "✔", "✘", "•••"}
	printer.Printf("%s", printer.Table(headers, rows))
	printer.Println(printer.Header(""))
}
