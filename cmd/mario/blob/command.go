// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package blob implements "mario blob", which seeds the storage
// container that a factory's copy activities read from.
package blob

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/blobseed"
	"github.com/jeffbrennan/mario/lib/render"
	"github.com/jeffbrennan/mario/lib/tfvars"
)

// Terraform variables naming the seeded storage.
const (
	VariableAccount   = "storage_account_name"
	VariableContainer = "container_name"
)

// OpenStore connects to a storage account with the default Azure
// credential chain. Tests replace it.
var OpenStore = func(account string) (blobseed.Store, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return blobseed.Connect(account, credential, nil)
}

// Command returns the "blob" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "blob",
		Summary: "Seed blob storage with test data",
		Subcommands: []*cli.Command{
			uploadCommand(),
		},
	}
}

type uploadParams struct {
	cli.JSONOutput
	Vars      string `json:"vars"      flag:"vars"      desc:"terraform variables file declaring storage_account_name and container_name" default:"tf/variables.tf"`
	Folder    string `json:"folder"    flag:"folder"    desc:"virtual directory inside the container" default:"bronze"`
	Account   string `json:"account"   flag:"account"   desc:"storage account (overrides the variables file)"`
	Container string `json:"container" flag:"container" desc:"container (overrides the variables file)"`
}

type uploadResult struct {
	Account string `json:"account"`
	*blobseed.Result
}

func uploadCommand() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload",
		Summary: "Upload a sample file to the pipelines' source container",
		Usage:   "mario blob upload <file> [flags]",
		Description: `Upload a local file to <container>/<folder>/<file name> and list the
folder afterwards. The storage account and container default to the
defaults of the storage_account_name and container_name variables in
the terraform variables file that provisioned them.

Authentication uses the default Azure credential chain, the same as
the factory commands.`,
		Examples: []cli.Example{
			{
				Description: "Seed the bronze folder with the iris sample",
				Command:     "mario blob upload scripts/test_data/iris.csv",
			},
			{
				Description: "Upload to an explicit container without a variables file",
				Command:     "mario blob upload iris.csv --account stmariodev --container raw --folder landing",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("upload", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("usage: mario blob upload <file> [flags]")
			}
			file := args[0]
			if info, err := os.Stat(file); err != nil || !info.Mode().IsRegular() {
				return cli.Validation("%s is not a readable file", file)
			}

			account, container, err := storageTarget(params)
			if err != nil {
				return err
			}
			logger.Debug("resolved storage target", "account", account, "container", container)

			store, err := OpenStore(account)
			if err != nil {
				return cli.Internal("connecting to storage account %s: %w", account, err)
			}
			request := blobseed.Request{Container: container, Folder: params.Folder, File: file}
			printer := render.New(cli.Stdout)
			if !params.OutputJSON {
				printer.Printf("uploading blob: %s/%s\n", container, request.BlobName())
			}
			result, err := blobseed.Upload(ctx, store, request)
			if err != nil {
				return cli.Remote(err, "seeding %s", account)
			}
			logger.Info("uploaded blob", "account", account, "container", container, "blob", result.Blob)

			if done, err := params.EmitJSON(uploadResult{Account: account, Result: result}); done {
				return err
			}
			printer.Printf("blobs in %s:\n", container)
			for _, name := range result.Listing {
				printer.Printf("  %s\n", name)
			}
			return nil
		},
	}
}

// storageTarget fills the account and container from the variables file
// unless both were given as flags.
func storageTarget(params uploadParams) (account, container string, err error) {
	account, container = params.Account, params.Container
	if account != "" && container != "" {
		return account, container, nil
	}

	variables, err := tfvars.ParseFile(params.Vars)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", cli.Validation("%s not found: pass --vars, or --account and --container", params.Vars)
		}
		return "", "", cli.Validation("%w", err)
	}
	if account == "" {
		if account, err = variables.String(VariableAccount); err != nil {
			return "", "", cli.Validation("%s: %w", params.Vars, err)
		}
	}
	if container == "" {
		if container, err = variables.String(VariableContainer); err != nil {
			return "", "", cli.Validation("%s: %w", params.Vars, err)
		}
	}
	return account, container, nil
}
