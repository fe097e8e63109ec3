// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/environment"
	"github.com/jeffbrennan/mario/lib/ledger"
	"github.com/jeffbrennan/mario/lib/pipelinerun"
	"github.com/jeffbrennan/mario/lib/render"
)

type runParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Name  string   `json:"name"  flag:"name,n" desc:"only run pipelines whose name contains this substring"`
	Param []string `json:"param" flag:"param,p" desc:"run parameter as KEY=TEMPLATE or KEY:=JSON (repeatable)"`
}

type runResult struct {
	Factory string                `json:"factory"`
	Runs    []pipelinerun.Started `json:"runs"`
}

func runCommand() *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Start a run of every pipeline in the factory",
		Usage:   "mario pipeline run [flags]",
		Description: `List the pipelines registered in the factory and start one run of
each, one at a time, in the order the service lists them. Pipelines
without a name are skipped. The first failure stops the batch.

Started runs are recorded in the run ledger under paths.state, so
"mario runs wait --last" can follow them.

Parameter values given as KEY=VALUE are Go templates with the sprig
function library, rendered per pipeline with .Pipeline and .Factory.
Values given as KEY:=JSON are decoded and passed through unchanged.`,
		Examples: []cli.Example{
			{
				Description: "Run every pipeline",
				Command:     "mario pipeline run",
			},
			{
				Description: "Run the copy pipelines for today's partition",
				Command:     `mario pipeline run --name copy_ --param 'day={{ now | date "2006-01-02" }}'`,
			},
			{
				Description: "Pass a structured parameter",
				Command:     `mario pipeline run --param 'tables:=["iris","penguins"]'`,
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			parameters, err := pipelinerun.ParseParameters(params.Param)
			if err != nil {
				return cli.Validation("%w", err)
			}

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			factoryName := connection.Environment.String()

			printer := render.New(cli.Stdout)
			request := pipelinerun.Request{
				Filter:     params.Name,
				Parameters: parameters,
				Factory:    connection.Target.FactoryName,
			}
			hooks := pipelinerun.Hooks{
				OnPlan: func(names []string) {
					if !params.OutputJSON {
						printer.Printf("starting runs for n=%d pipelines\n", len(names))
					}
				},
				OnStart: func(name string) {
					if !params.OutputJSON {
						printer.Printf("starting pipeline: %s\n", name)
					}
				},
			}
			triggeredAt := cli.Clock.Now().UTC()
			started, runErr := pipelinerun.TriggerAll(ctx, connection.Service, request, hooks)

			if len(started) > 0 {
				store := ledger.Open(connection.Config.Paths.State)
				if err := store.Append(batchOf(connection.Environment, triggeredAt, started)); err != nil {
					logger.Warn("recording started runs", "path", store.Path(), "error", err)
				} else {
					logger.Debug("recorded started runs", "path", store.Path(), "runs", len(started))
				}
			}
			if runErr != nil {
				logger.Error("run batch stopped", "started", len(started))
				return cli.Remote(runErr, "starting runs in %s", factoryName)
			}

			if done, err := params.EmitJSON(runResult{Factory: factoryName, Runs: started}); done {
				return err
			}
			if len(started) > 0 {
				rows := lo.Map(started, func(run pipelinerun.Started, _ int) []string {
					return []string{run.Pipeline, run.RunID}
				})
				printer.Printf("\n%s", printer.Table([]string{"PIPELINE", "RUN ID"}, rows))
			}
			return nil
		},
	}
}

// batchOf builds the ledger record for one invocation. Parameters are
// kept only when every run received the same values.
func batchOf(env *environment.Environment, triggeredAt time.Time, started []pipelinerun.Started) ledger.Batch {
	batch := ledger.Batch{
		Subscription: env.SubscriptionID,
		Factory:      env.String(),
		TriggeredAt:  triggeredAt,
		Runs: lo.Map(started, func(run pipelinerun.Started, _ int) ledger.Entry {
			return ledger.Entry{Pipeline: run.Pipeline, RunID: run.RunID}
		}),
	}
	uniform := lo.EveryBy(started, func(run pipelinerun.Started) bool {
		return reflect.DeepEqual(run.Parameters, started[0].Parameters)
	})
	if uniform {
		batch.Parameters = started[0].Parameters
	}
	return batch
}
