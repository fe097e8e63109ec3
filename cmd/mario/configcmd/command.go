// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package configcmd implements the "mario config" subcommands, which
// write and inspect the user config file.
package configcmd

import (
	"errors"
	"io/fs"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/config"
)

// Command returns the "config" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Set up and inspect the mario config file",
		Description: `The config file holds default values for the target data factory and
the local pipeline and state directories. It is read from --config,
then $` + config.EnvironmentVariable + `, then the user config directory.

Factory values in the process environment or a .env file always take
precedence over the config file.`,
		Subcommands: []*cli.Command{
			setupCommand(),
			showCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Answer prompts for the factory details",
				Command:     "mario config setup",
			},
			{
				Description: "Check that the target factory resolves and is reachable",
				Command:     "mario config show --check",
			},
		},
	}
}

// loadOrDefault reads the config at path with load, or returns the
// defaults when no file exists there yet.
func loadOrDefault(path string, load func(string) (*config.Config, error)) (*config.Config, bool, error) {
	cfg, err := load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), false, nil
	}
	if err != nil {
		return nil, false, cli.Validation("%w", err)
	}
	return cfg, true, nil
}
