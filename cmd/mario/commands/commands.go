// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete mario command tree.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/blob"
	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/cmd/mario/configcmd"
	pipelinecmd "github.com/jeffbrennan/mario/cmd/mario/pipeline"
	runscmd "github.com/jeffbrennan/mario/cmd/mario/runs"
	"github.com/jeffbrennan/mario/lib/environment"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/version"
)

// Root builds and returns the complete mario command tree.
func Root() *cli.Command {
	root := &cli.Command{
		Name: "mario",
		Description: `mario: Azure Data Factory pipeline management.

Upload pipeline definitions from JSON files, start and follow runs,
and summarize run history for one data factory. The target factory is
read from ` + environment.KeySubscriptionID + `, ` + environment.KeyResourceGroup + ` and
` + environment.KeyFactoryName + `, looked up in the environment, then ./.env,
then the user config file.

Pass --verbose (or -v) before the command for debug logging.`,
		Subcommands: []*cli.Command{
			pipelinecmd.Command(),
			runscmd.Command(),
			configcmd.Command(),
			blob.Command(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Upload every definition in ./pipelines",
				Command:     "mario pipeline upload",
			},
			{
				Description: "Start a run of every pipeline and wait for them to finish",
				Command:     "mario pipeline run && mario runs wait --last",
			},
			{
				Description: "Summarize the last week of runs",
				Command:     "mario runs summarize --days 7",
			},
			{
				Description: "Check which factory the commands will target",
				Command:     "mario config show --check",
			},
			{
				Description: "Run several commands in one interactive session",
				Command:     "mario shell",
			},
		},
	}

	// The shell dispatches through a freshly built tree, so it is added
	// after the others.
	root.Subcommands = append(root.Subcommands, shellCommand(Root))
	return root
}

type versionParams struct {
	cli.JSONOutput
}

func versionCommand() *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			build := version.Current()
			if done, err := params.EmitJSON(build); done {
				return err
			}
			render.New(cli.Stdout).Printf("mario %s\n", build.Full())
			return nil
		},
	}
}
