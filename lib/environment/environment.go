// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package environment resolves the Azure Data Factory target that every
// remote command operates on.
//
// Three values are required: AZ_SUBSCRIPTION_ID, AZ_RESOURCE_GROUP and
// AZ_DATAFACTORY_NAME. Each is looked up, in order, in the process
// environment, then a .env file, then the defaults from the user config
// file. An empty value counts as missing. [Load] fails with a
// [*MissingError] naming every missing key, and it never touches the
// network, so a misconfigured invocation fails before any remote call.
package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Names of the required variables.
const (
	KeySubscriptionID = "AZ_SUBSCRIPTION_ID"
	KeyResourceGroup  = "AZ_RESOURCE_GROUP"
	KeyFactoryName    = "AZ_DATAFACTORY_NAME"
)

// DefaultFile is the .env file read when no file is named explicitly.
const DefaultFile = ".env"

// Keys lists the required variables in reporting order.
var Keys = []string{KeySubscriptionID, KeyResourceGroup, KeyFactoryName}

// Environment is a fully resolved factory target.
type Environment struct {
	SubscriptionID string `json:"subscription_id"`
	ResourceGroup  string `json:"resource_group"`
	FactoryName    string `json:"factory_name"`

	// Sources records where each key's value came from: "env", the
	// .env path, or "config".
	Sources map[string]string `json:"sources"`
}

// Options controls where Load looks for values.
type Options struct {
	// File is the .env file to read. Empty means DefaultFile, which is
	// allowed to be absent. A named file must exist.
	File string

	// Defaults supplies values used when neither the process
	// environment nor the .env file sets a key. Typically populated
	// from the user config file.
	Defaults map[string]string

	// LookupEnv reads the process environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// MissingError reports required keys that had no non-empty value.
type MissingError struct {
	Keys []string
	// File is the .env file that was consulted, or "" if none was read.
	File string
}

func (e *MissingError) Error() string {
	message := fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
	if e.File != "" {
		message += fmt.Sprintf(" (checked environment, %s, and user config)", e.File)
	} else {
		message += " (checked environment and user config)"
	}
	return message
}

// Load resolves the three required values. It reads the .env file with
// godotenv.Read and does not modify the process environment.
func Load(options Options) (*Environment, error) {
	lookup := options.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fileValues, filePath, err := readFile(options.File)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(Keys))
	sources := make(map[string]string, len(Keys))
	var missing []string
	for _, key := range Keys {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			resolved[key], sources[key] = strings.TrimSpace(value), "env"
			continue
		}
		if value := strings.TrimSpace(fileValues[key]); value != "" {
			resolved[key], sources[key] = value, filePath
			continue
		}
		if value := strings.TrimSpace(options.Defaults[key]); value != "" {
			resolved[key], sources[key] = value, "config"
			continue
		}
		missing = append(missing, key)
	}

	if len(missing) > 0 {
		return nil, &MissingError{Keys: missing, File: filePath}
	}

	return &Environment{
		SubscriptionID: resolved[KeySubscriptionID],
		ResourceGroup:  resolved[KeyResourceGroup],
		FactoryName:    resolved[KeyFactoryName],
		Sources:        sources,
	}, nil
}

// readFile returns the parsed .env values and the path actually read
// ("" when the default file does not exist).
func readFile(path string) (map[string]string, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return values, path, nil
}

// String returns the factory's management path relative to the
// subscription, e.g. "rg-data/adf-dev".
func (e *Environment) String() string {
	return e.ResourceGroup + "/" + e.FactoryName
}
