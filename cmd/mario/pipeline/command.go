// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline implements the "mario pipeline" subcommands, which
// manage the pipeline definitions registered in a data factory.
//
// The target factory comes from AZ_SUBSCRIPTION_ID, AZ_RESOURCE_GROUP
// and AZ_DATAFACTORY_NAME, read from the process environment, a .env
// file (--env-file, default ./.env), or the user config file. A missing
// value fails the command before any remote call.
package pipeline

import (
	"errors"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/pipelinedef"
	"github.com/jeffbrennan/mario/lib/render"
)

// Command returns the "pipeline" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "pipeline",
		Summary: "Upload, run, and inspect data factory pipelines",
		Description: `Manage the pipelines registered in an Azure Data Factory.

"upload" publishes every *.json definition in a local directory, keyed
by each resource's own name. "run" starts one run of every pipeline
the factory lists. The remaining subcommands inspect, compare, export,
and delete individual pipelines.`,
		Subcommands: []*cli.Command{
			uploadCommand(),
			runCommand(),
			listCommand(),
			showCommand(),
			validateCommand(),
			compareCommand(),
			exportCommand(),
			summarizeCommand(),
			deleteCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Upload every definition in ./pipelines",
				Command:     "mario pipeline upload",
			},
			{
				Description: "Start a run of every pipeline in the factory",
				Command:     "mario pipeline run",
			},
			{
				Description: "Show one pipeline's activities",
				Command:     "mario pipeline show copy_iris --path '$.properties.activities[*].name'",
			},
		},
	}
}

// reportValidation prints the issues of a *pipelinedef.ValidationError,
// one source per block, and returns err as a validation failure.
func reportValidation(printer *render.Printer, err error) error {
	var invalid *pipelinedef.ValidationError
	if !errors.As(err, &invalid) {
		return err
	}
	for _, source := range invalid.Sources() {
		printer.Printf("%s:\n", source)
		for _, issue := range invalid.Issues[source] {
			printer.Printf("  - %s\n", issue)
		}
	}
	return cli.Validation("%w", err)
}
