// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runs

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/runstats"
)

type timeseriesParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Days int `json:"days" flag:"days,d" desc:"number of days to chart (1-30)" default:"7"`
}

type timeseriesResult struct {
	Factory  string           `json:"factory"`
	Pipeline string           `json:"pipeline"`
	Points   []runstats.Point `json:"points"`
}

func timeseriesCommand() *cli.Command {
	var params timeseriesParams

	return &cli.Command{
		Name:    "timeseries",
		Summary: "Chart one pipeline's run durations over time",
		Usage:   "mario runs timeseries <pipeline> [flags]",
		Description: `Chart the runs of one pipeline in start order. Each line shows the
start time, a bar scaled between the shortest and longest run and
colored by status, the duration, and the change from the previous run
(an up arrow when slower, a down arrow when faster).`,
		Examples: []cli.Example{
			{
				Description: "Chart the last month of copy_iris",
				Command:     "mario runs timeseries copy_iris --days 30",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("timeseries", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: mario runs timeseries <pipeline> [flags]")
			}
			name := args[0]

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			_, found, err := queryRuns(ctx, connection.Service, params.Days, name)
			if err != nil {
				return err
			}
			points := runstats.Timeseries(found)

			if done, err := params.EmitJSON(timeseriesResult{
				Factory:  connection.Environment.String(),
				Pipeline: name,
				Points:   points,
			}); done {
				return err
			}

			printer := render.New(cli.Stdout)
			printer.Println(printer.Header("ANALYZE"))
			if len(points) == 0 {
				printer.Printf("No runs found matching %s\n", name)
				printer.Println(printer.Header(""))
				return nil
			}
			printer.Printf("%s\n\n", printer.Underline(name))
			for _, point := range points {
				printer.Printf("%s %s %s %s\n",
					point.Start.Format(render.TimeLayout),
					printer.Bar(point.Status, point.Bar),
					render.Duration(point.Duration),
					printer.Change(point.ChangePercent),
				)
			}
			printer.Println(printer.Header(""))
			return nil
		},
	}
}
