// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/archive"
	"github.com/jeffbrennan/mario/lib/render"
)

type exportParams struct {
	cli.FactoryConnection
	cli.JSONOutput
	Archive   string `json:"archive"   flag:"archive"   desc:"write a .tar.zst archive with a digest manifest instead of a directory"`
	Name      string `json:"name"      flag:"name,n"    desc:"only export pipelines whose name contains this substring"`
	Overwrite bool   `json:"overwrite" flag:"overwrite" desc:"replace existing files"`
}

type exportResult struct {
	Factory string   `json:"factory"`
	Files   []string `json:"files,omitempty"`

	Archive  string            `json:"archive,omitempty"`
	Manifest *archive.Manifest `json:"manifest,omitempty"`
}

func exportCommand() *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Write the factory's pipelines to local files",
		Usage:   "mario pipeline export (<dir> | --archive <file>) [flags]",
		Description: `Fetch every pipeline in the factory and write it as <name>.json in the
format "pipeline upload" reads, so an export can be edited and
uploaded again.

With --archive, the definitions are written instead to a single
zstd-compressed tar file whose first member is a manifest of BLAKE3
digests. "pipeline upload --archive" and "pipeline validate" verify
the digests when reading it back.`,
		Examples: []cli.Example{
			{
				Description: "Export into ./pipelines, replacing local copies",
				Command:     "mario pipeline export pipelines --overwrite",
			},
			{
				Description: "Snapshot a factory",
				Command:     "mario pipeline export --archive adf-dev.tar.zst",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			switch {
			case params.Archive == "" && len(args) != 1:
				return cli.Validation("usage: mario pipeline export <dir> [flags]")
			case params.Archive != "" && len(args) != 0:
				return cli.Validation("--archive and a directory argument are mutually exclusive")
			case params.Archive != "" && !strings.HasSuffix(params.Archive, archive.Extension):
				return cli.Validation("archive name must end in %s", archive.Extension)
			}

			connection, err := params.Connect(ctx, logger)
			if err != nil {
				return err
			}
			factoryName := connection.Environment.String()

			listed, err := connection.Service.ListPipelines(ctx)
			if err != nil {
				return cli.Remote(err, "listing pipelines in %s", factoryName)
			}
			resources := lo.Filter(listed, func(resource *armdatafactory.PipelineResource, _ int) bool {
				return resource != nil && resource.Name != nil && *resource.Name != "" &&
					strings.Contains(*resource.Name, params.Name)
			})
			if len(resources) < len(listed) {
				logger.Debug("skipped pipelines", "skipped", len(listed)-len(resources))
			}

			result := exportResult{Factory: factoryName}
			if params.Archive != "" {
				manifest, err := writeArchiveFile(params.Archive, factoryName, resources, params.Overwrite)
				if err != nil {
					return err
				}
				result.Archive, result.Manifest = params.Archive, manifest
			} else {
				files, err := archive.WriteDir(args[0], resources, params.Overwrite)
				if err != nil {
					return cli.Validation("%w", err)
				}
				result.Files = files
			}
			logger.Info("exported pipelines", "factory", factoryName, "count", len(resources))

			if done, err := params.EmitJSON(result); done {
				return err
			}
			printer := render.New(cli.Stdout)
			if result.Archive != "" {
				printer.Printf("exported %d pipelines to %s\n", len(resources), result.Archive)
				return nil
			}
			for _, file := range result.Files {
				printer.Printf("exported pipeline: %s\n", file)
			}
			return nil
		},
	}
}

// writeArchiveFile writes the archive to a temporary file beside path
// and renames it into place, so a failed export never leaves a
// truncated archive behind.
func writeArchiveFile(path, factoryName string, resources []*armdatafactory.PipelineResource, overwrite bool) (*archive.Manifest, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, cli.Validation("%s already exists (use --overwrite to replace it)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, cli.Validation("checking %s: %w", path, err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	temporary, err := os.CreateTemp(dir, ".export-*"+archive.Extension)
	if err != nil {
		return nil, fmt.Errorf("creating temporary archive: %w", err)
	}
	success := false
	defer func() {
		if !success {
			temporary.Close()
			os.Remove(temporary.Name())
		}
	}()

	manifest, err := archive.WriteArchive(temporary, factoryName, cli.Clock.Now().UTC(), resources)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if err := temporary.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return nil, fmt.Errorf("renaming archive into place: %w", err)
	}
	success = true
	return manifest, nil
}
