// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/archive"
	"github.com/jeffbrennan/mario/lib/config"
	"github.com/jeffbrennan/mario/lib/pipelinedef"
	"github.com/jeffbrennan/mario/lib/render"
)

type validateParams struct {
	cli.JSONOutput
	ConfigPath string `json:"config,omitempty" flag:"config" desc:"mario config file, consulted for the default pipeline directory"`
}

type validateEntry struct {
	Source string   `json:"source"`
	Name   string   `json:"name,omitempty"`
	Digest string   `json:"digest,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

func validateCommand() *cli.Command {
	var params validateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Check pipeline definitions without contacting the factory",
		Usage:   "mario pipeline validate [path...] [flags]",
		Description: `Parse and validate pipeline definitions locally. Each path may be a
JSON file, a directory of *.json files, or a .tar.zst archive written
by "pipeline export". With no paths, the configured pipeline directory
is checked.

The checks are the ones "pipeline upload" runs before its first
remote call: the document decodes as a pipeline resource, the name is
present and legal, activities are named and unique, and no two
definitions share a name. No environment variables are needed.`,
		Examples: []cli.Example{
			{
				Description: "Validate ./pipelines",
				Command:     "mario pipeline validate",
			},
			{
				Description: "Validate specific files",
				Command:     "mario pipeline validate pipelines/copy_iris.json pipelines/copy_penguins.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			paths := args
			if len(paths) == 0 {
				cfg, err := config.Load(params.ConfigPath)
				if err != nil {
					return cli.Validation("%w", err)
				}
				paths = []string{cfg.Paths.Pipelines}
			}

			var (
				definitions []*pipelinedef.Definition
				entries     []validateEntry
			)
			for _, path := range paths {
				loaded, failures, err := collectDefinitions(path)
				if err != nil {
					return cli.Validation("%w", err)
				}
				definitions = append(definitions, loaded...)
				entries = append(entries, failures...)
			}
			if len(definitions) == 0 && len(entries) == 0 {
				return cli.Validation("no pipeline definitions found in %s", strings.Join(paths, ", "))
			}
			logger.Debug("collected definitions", "paths", len(paths), "definitions", len(definitions))

			invalid := make(map[string][]string)
			var validation *pipelinedef.ValidationError
			if err := pipelinedef.ValidateAll(definitions); errors.As(err, &validation) {
				invalid = validation.Issues
			}
			for _, definition := range definitions {
				entry := validateEntry{Source: definition.Source(), Name: definition.Name(), Issues: invalid[definition.Source()]}
				if len(entry.Issues) == 0 {
					entry.Digest, _ = pipelinedef.Digest(&definition.Resource)
				}
				entries = append(entries, entry)
			}

			failed := 0
			for _, entry := range entries {
				if len(entry.Issues) > 0 {
					failed++
				}
			}

			if done, err := params.EmitJSON(entries); done {
				if err != nil {
					return err
				}
			} else {
				printValidation(render.New(cli.Stdout), entries)
			}
			if failed > 0 {
				return cli.Validation("%d of %d pipeline definition(s) invalid", failed, len(entries))
			}
			return nil
		},
	}
}

// collectDefinitions reads path as a file, directory or archive. A file
// that does not parse becomes an entry with an issue so every problem
// is reported in one pass. An unreadable path is an error.
func collectDefinitions(path string) ([]*pipelinedef.Definition, []validateEntry, error) {
	if strings.HasSuffix(path, archive.Extension) {
		_, definitions, err := archive.ReadArchiveFile(path)
		if err != nil {
			return nil, nil, err
		}
		return definitions, nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	files := []string{path}
	if info.IsDir() {
		if files, err = pipelinedef.Files(path); err != nil {
			return nil, nil, err
		}
	}

	var (
		definitions []*pipelinedef.Definition
		failures    []validateEntry
	)
	for _, file := range files {
		definition, err := pipelinedef.ReadFile(file)
		if err != nil {
			failures = append(failures, validateEntry{Source: file, Issues: []string{parseIssue(file, err)}})
			continue
		}
		definitions = append(definitions, definition)
	}
	return definitions, failures, nil
}

// parseIssue drops the "<path>: " prefix ReadFile adds, since the entry
// already names its source.
func parseIssue(path string, err error) string {
	return strings.TrimPrefix(err.Error(), path+": ")
}

func printValidation(printer *render.Printer, entries []validateEntry) {
	for _, entry := range entries {
		if len(entry.Issues) == 0 {
			printer.Printf("ok       %s (%s)\n", entry.Name, entry.Source)
			continue
		}
		printer.Printf("invalid  %s\n", entry.Source)
		for _, issue := range entry.Issues {
			printer.Printf("         - %s\n", issue)
		}
	}
}
