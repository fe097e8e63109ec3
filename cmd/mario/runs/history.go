// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/codec"
	"github.com/jeffbrennan/mario/lib/config"
	"github.com/jeffbrennan/mario/lib/ledger"
	"github.com/jeffbrennan/mario/lib/render"
)

type historyParams struct {
	cli.JSONOutput
	ConfigPath string `json:"config"  flag:"config"  desc:"mario config file, consulted for paths.state"`
	Factory    string `json:"factory" flag:"factory" desc:"only show batches for this <resource group>/<factory>"`
	Raw        bool   `json:"raw"     flag:"raw"     desc:"print the ledger file in CBOR diagnostic notation"`
}

func historyCommand() *cli.Command {
	var params historyParams

	return &cli.Command{
		Name:    "history",
		Summary: "List the run batches recorded by \"pipeline run\"",
		Usage:   "mario runs history [flags]",
		Description: fmt.Sprintf(`List the batches in the local run ledger (%s under paths.state),
newest first. Each "mario pipeline run" records one batch with the
factory, the trigger time, and every run it started. The ledger keeps
the %d most recent batches.

No remote call is made.`, ledger.FileName, ledger.MaxBatches),
		Examples: []cli.Example{
			{
				Description: "Show recorded batches",
				Command:     "mario runs history",
			},
			{
				Description: "Inspect the ledger encoding",
				Command:     "mario runs history --raw",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("history", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, err := config.Load(params.ConfigPath)
			if err != nil {
				return cli.Validation("%w", err)
			}
			store := ledger.Open(cfg.Paths.State)
			logger.Debug("reading run ledger", "path", store.Path())
			printer := render.New(cli.Stdout)

			if params.Raw {
				data, err := store.Raw()
				if err != nil {
					return cli.Internal("%w", err)
				}
				if data == nil {
					printer.Printf("no run ledger at %s\n", store.Path())
					return nil
				}
				diagnostic, err := codec.Diagnose(data)
				if err != nil {
					return cli.Internal("decoding %s: %w", store.Path(), err)
				}
				printer.Println(diagnostic)
				return nil
			}

			batches, err := store.Batches()
			if err != nil {
				return cli.Internal("%w", err)
			}
			if params.Factory != "" {
				batches = lo.Filter(batches, func(batch ledger.Batch, _ int) bool {
					return batch.Factory == params.Factory
				})
			}
			slices.Reverse(batches)

			if done, err := params.EmitJSON(batches); done {
				return err
			}
			if len(batches) == 0 {
				printer.Println("No recorded runs.")
				return nil
			}
			rows := lo.Map(batches, func(batch ledger.Batch, _ int) []string {
				pipelines := lo.Map(batch.Runs, func(entry ledger.Entry, _ int) string { return entry.Pipeline })
				return []string{
					batch.TriggeredAt.Local().Format(render.TimeLayout),
					batch.Factory,
					fmt.Sprint(len(batch.Runs)),
					strings.Join(pipelines, ", "),
				}
			})
			printer.Printf("%s", printer.Table([]string{"TRIGGERED", "FACTORY", "RUNS", "PIPELINES"}, rows))
			return nil
		},
	}
}
