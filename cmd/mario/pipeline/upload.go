// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/archive"
	"github.com/jeffbrennan/mario/lib/pipelinedef"
	"github.com/jeffbrennan/mario/lib/render"
)

type uploadParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Dir     string `json:"dir"     flag:"dir"     desc:"directory of pipeline definitions (default paths.pipelines from config)"`
	Archive string `json:"archive" flag:"archive" desc:"upload the definitions in a .tar.zst archive written by export"`
	DryRun  bool   `json:"dry_run" flag:"dry-run" desc:"validate and list the uploads without calling the service"`
}

type uploadResult struct {
	Factory string                     `json:"factory"`
	DryRun  bool                       `json:"dry_run,omitempty"`
	Results []pipelinedef.UploadResult `json:"results"`
}

func uploadCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload",
		Summary: "Create or update every pipeline definition in a directory",
		Usage:   "mario pipeline upload [flags]",
		Description: `Read every *.json file in the pipeline directory, decode each as an
ADF pipeline resource, and create or update it in the factory under
the resource's own "name" field.

Every definition is validated before the first upload: a file with no
name, an illegal name, or a name shared with another file stops the
command without any remote call. Uploads then run one at a time in
file-name order, and the first failure stops the batch.`,
		Examples: []cli.Example{
			{
				Description: "Upload ./pipelines",
				Command:     "mario pipeline upload",
			},
			{
				Description: "Check a directory without uploading",
				Command:     "mario pipeline upload --dir build/pipelines --dry-run",
			},
			{
				Description: "Restore a factory from an export archive",
				Command:     "mario pipeline upload --archive adf-dev.tar.zst",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("upload", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.Dir != "" && params.Archive != "" {
				return cli.Validation("--dir and --archive are mutually exclusive")
			}

			env, cfg, err := params.Resolve()
			if err != nil {
				return err
			}

			definitions, err := loadDefinitions(params.Dir, params.Archive, cfg.Paths.Pipelines, logger)
			if err != nil {
				return err
			}

			printer := render.New(cli.Stdout)
			if err := pipelinedef.ValidateAll(definitions); err != nil {
				return reportValidation(printer, err)
			}
			if params.Archive == "" {
				warnFileNameMismatch(definitions, logger)
			}

			if params.DryRun {
				results := make([]pipelinedef.UploadResult, len(definitions))
				for i, definition := range definitions {
					results[i] = pipelinedef.UploadResult{Name: definition.Name(), Path: definition.Path}
				}
				if done, err := params.EmitJSON(uploadResult{Factory: env.String(), DryRun: true, Results: results}); done {
					return err
				}
				for _, result := range results {
					printer.Printf("would upload pipeline: %s\n", result.Name)
				}
				return nil
			}

			connection, err := cli.Open(ctx, logger, env, cfg)
			if err != nil {
				return err
			}

			results, err := pipelinedef.UploadAll(ctx, connection.Service, definitions, func(definition *pipelinedef.Definition) {
				if !params.OutputJSON {
					printer.Printf("uploading pipeline: %s\n", definition.Name())
				}
			})
			if err != nil {
				logger.Error("upload stopped", "uploaded", len(results), "total", len(definitions))
				return cli.Remote(err, "uploading to %s", env)
			}
			logger.Info("uploaded pipelines", "factory", env.String(), "count", len(results))

			if done, err := params.EmitJSON(uploadResult{Factory: env.String(), Results: results}); done {
				return err
			}
			return nil
		},
	}
}

// loadDefinitions reads from archivePath when set, else from dir, else
// from the configured pipeline directory.
func loadDefinitions(dir, archivePath, configured string, logger *slog.Logger) ([]*pipelinedef.Definition, error) {
	if archivePath != "" {
		manifest, definitions, err := archive.ReadArchiveFile(archivePath)
		if err != nil {
			return nil, cli.Validation("%w", err)
		}
		logger.Debug("read archive", "path", archivePath, "factory", manifest.Factory, "pipelines", len(definitions))
		return definitions, nil
	}

	if dir == "" {
		dir = configured
	}
	definitions, err := pipelinedef.LoadDir(dir)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if len(definitions) == 0 {
		return nil, cli.Validation("no %s files in %s", pipelinedef.Pattern, dir)
	}
	logger.Debug("read pipeline directory", "dir", dir, "pipelines", len(definitions))
	return definitions, nil
}

func warnFileNameMismatch(definitions []*pipelinedef.Definition, logger *slog.Logger) {
	for _, definition := range definitions {
		if stem := pipelinedef.NameFromPath(definition.Path); stem != definition.Name() {
			logger.Warn("file name differs from pipeline name; uploading under the pipeline name",
				"path", definition.Path, "name", definition.Name())
		}
	}
}
