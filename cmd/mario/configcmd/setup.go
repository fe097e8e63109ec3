// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package configcmd

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/config"
	"github.com/jeffbrennan/mario/lib/pipelinedef"
	"github.com/jeffbrennan/mario/lib/render"
)

type setupParams struct {
	ConfigPath     string `json:"config"          flag:"config"          desc:"config file to write (default $MARIO_CONFIG or the user config directory)"`
	SubscriptionID string `json:"subscription_id" flag:"subscription-id" desc:"Azure subscription ID"`
	ResourceGroup  string `json:"resource_group"  flag:"resource-group"  desc:"resource group containing the data factory"`
	DataFactory    string `json:"data_factory"    flag:"data-factory"    desc:"data factory name"`
	Pipelines      string `json:"pipelines"       flag:"pipelines"       desc:"default directory for pipeline upload"`
	State          string `json:"state"           flag:"state"           desc:"directory for the run ledger"`
}

func setupCommand() *cli.Command {
	var params setupParams

	return &cli.Command{
		Name:    "setup",
		Summary: "Write the factory details to the config file",
		Usage:   "mario config setup [flags]",
		Description: `Write the target factory and local directories to the config file.
Values already in the file are kept unless replaced.

When none of --subscription-id, --resource-group and --data-factory is
given, each factory value is prompted for on the terminal, showing the
current value in brackets; an empty answer keeps it.`,
		Examples: []cli.Example{
			{
				Description: "Prompt for the factory details",
				Command:     "mario config setup",
			},
			{
				Description: "Configure without prompts",
				Command:     "mario config setup --subscription-id $SUB --resource-group rg-data --data-factory adf-dev",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("setup", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			path, _, err := config.Resolve(params.ConfigPath)
			if err != nil {
				return cli.Internal("%w", err)
			}
			cfg, existed, err := loadOrDefault(path, config.LoadFileRaw)
			if err != nil {
				return err
			}

			factory := &cfg.Factory
			if params.SubscriptionID == "" && params.ResourceGroup == "" && params.DataFactory == "" {
				prompter, err := cli.NewPrompter("pass --subscription-id, --resource-group and --data-factory")
				if err != nil {
					return err
				}
				for _, question := range []struct {
					label string
					value *string
				}{
					{"Azure subscription ID", &factory.SubscriptionID},
					{"Resource group", &factory.ResourceGroup},
					{"Data factory name", &factory.DataFactory},
				} {
					if *question.value, err = prompter.Ask(question.label, *question.value); err != nil {
						return err
					}
				}
			}
			setIfGiven(&factory.SubscriptionID, params.SubscriptionID)
			setIfGiven(&factory.ResourceGroup, params.ResourceGroup)
			setIfGiven(&factory.DataFactory, params.DataFactory)
			setIfGiven(&cfg.Paths.Pipelines, params.Pipelines)
			setIfGiven(&cfg.Paths.State, params.State)

			if factory.DataFactory != "" {
				if issue := pipelinedef.ValidateName(factory.DataFactory); issue != "" {
					logger.Warn("data factory name looks invalid", "issue", issue)
				}
			}
			if err := cfg.Validate(); err != nil {
				return cli.Validation("%w", err)
			}
			if err := config.Save(path, cfg); err != nil {
				return cli.Internal("%w", err)
			}
			logger.Debug("saved config", "path", path, "replaced", existed)

			printer := render.New(cli.Stdout)
			printer.Printf("wrote %s\n", path)
			return nil
		},
	}
}

func setIfGiven(target *string, value string) {
	if value != "" {
		*target = value
	}
}
