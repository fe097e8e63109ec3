// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package configcmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/config"
	"github.com/jeffbrennan/mario/lib/environment"
	"github.com/jeffbrennan/mario/lib/render"
)

type showParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Check bool `json:"check" flag:"check" desc:"also connect to the factory to verify credentials and target"`
}

type showResult struct {
	Path        string                   `json:"path"`
	Exists      bool                     `json:"exists"`
	Config      *config.Config           `json:"config"`
	Environment *environment.Environment `json:"environment,omitempty"`
	Missing     []string                 `json:"missing,omitempty"`
	Reachable   *bool                    `json:"reachable,omitempty"`
	Location    string                   `json:"location,omitempty"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show the config file and the resolved factory target",
		Usage:   "mario config show [flags]",
		Description: `Print the config file location and contents, then the factory target
as the remote commands would resolve it, with the source of each value:
"env" for the process environment, a .env path, or "config".

Exits with status 1 when a required value is missing, or when --check
is set and the factory cannot be reached.`,
		Examples: []cli.Example{
			{
				Description: "Show where each factory value comes from",
				Command:     "mario config show",
			},
			{
				Description: "Verify the factory is reachable with the current credentials",
				Command:     "mario config show --check",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			path, _, err := config.Resolve(params.ConfigPath)
			if err != nil {
				return cli.Internal("%w", err)
			}
			cfg, exists, err := loadOrDefault(path, config.LoadFile)
			if err != nil {
				return err
			}
			result := showResult{Path: path, Exists: exists, Config: cfg}

			env, _, resolveErr := params.Resolve()
			var missing *environment.MissingError
			switch {
			case resolveErr == nil:
				result.Environment = env
			case errors.As(resolveErr, &missing):
				result.Missing = missing.Keys
			default:
				return resolveErr
			}

			var checkErr error
			if params.Check && env != nil {
				checkErr = check(ctx, logger, env, cfg, &result)
			}

			if done, err := params.EmitJSON(result); done {
				if err != nil {
					return err
				}
				return exitFor(result, checkErr)
			}

			printer := render.New(cli.Stdout)
			printer.Println(printer.Header("CONFIG"))
			if exists {
				printer.Printf("file:       %s\n", path)
			} else {
				printer.Printf("file:       %s (not created; run \"mario config setup\")\n", path)
			}
			printer.Printf("pipelines:  %s\n", cfg.Paths.Pipelines)
			printer.Printf("state:      %s\n", cfg.Paths.State)
			printer.Println()

			if env != nil {
				rows := [][]string{
					{environment.KeySubscriptionID, env.SubscriptionID, env.Sources[environment.KeySubscriptionID]},
					{environment.KeyResourceGroup, env.ResourceGroup, env.Sources[environment.KeyResourceGroup]},
					{environment.KeyFactoryName, env.FactoryName, env.Sources[environment.KeyFactoryName]},
				}
				printer.Printf("%s", printer.Table([]string{"KEY", "VALUE", "SOURCE"}, rows))
			} else {
				printer.Printf("%s %s\n", printer.Mark(false), resolveErr)
			}

			if result.Reachable != nil {
				printer.Println()
				if *result.Reachable {
					printer.Printf("%s reached factory %s (%s)\n", printer.Mark(true), env, result.Location)
				} else {
					printer.Printf("%s %s\n", printer.Mark(false), checkErr)
				}
			}
			printer.Println(printer.Header(""))
			return exitFor(result, checkErr)
		},
	}
}

// check dials the resolved target and records whether DescribeFactory
// succeeded.
func check(ctx context.Context, logger *slog.Logger, env *environment.Environment, cfg *config.Config, result *showResult) error {
	reachable := false
	result.Reachable = &reachable

	connection, err := cli.Open(ctx, logger, env, cfg)
	if err != nil {
		return err
	}
	described, err := connection.Service.DescribeFactory(ctx)
	if err != nil {
		return cli.Remote(err, "describing factory %s", env)
	}
	reachable = true
	if described.Location != nil {
		result.Location = *described.Location
	}
	return nil
}

func exitFor(result showResult, checkErr error) error {
	if len(result.Missing) > 0 || checkErr != nil {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
