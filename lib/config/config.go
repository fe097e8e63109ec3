// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides the optional mario user configuration file.
//
// The file is located by:
//   - the --config flag passed to the command, or
//   - the MARIO_CONFIG environment variable, or
//   - <user config dir>/mario/config.yaml
//
// A missing file at the default location is not an error: every value
// it holds can also come from the process environment or a .env file.
// A missing file named explicitly (flag or MARIO_CONFIG) is an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable that overrides the config
// file location.
const EnvironmentVariable = "MARIO_CONFIG"

// Config is the mario user configuration.
type Config struct {
	// Factory holds default values for the target data factory. Values
	// in the process environment or a .env file take precedence.
	Factory FactoryConfig `yaml:"factory"`

	// Paths configures local directory locations.
	Paths PathsConfig `yaml:"paths"`
}

// FactoryConfig identifies an Azure Data Factory instance.
type FactoryConfig struct {
	SubscriptionID string `yaml:"subscription_id,omitempty"`
	ResourceGroup  string `yaml:"resource_group,omitempty"`
	DataFactory    string `yaml:"data_factory,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Pipelines is the directory "pipeline upload" reads by default.
	Pipelines string `yaml:"pipelines"`

	// State is where the run ledger is stored.
	State string `yaml:"state"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	stateRoot, err := os.UserCacheDir()
	if err != nil {
		stateRoot = os.TempDir()
	}
	return &Config{
		Paths: PathsConfig{
			Pipelines: "pipelines",
			State:     filepath.Join(stateRoot, "mario"),
		},
	}
}

// DefaultPath returns the config file location when neither --config
// nor MARIO_CONFIG is given.
func DefaultPath() (string, error) {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(configRoot, "mario", "config.yaml"), nil
}

// Resolve returns the config file path and whether it was chosen
// explicitly. explicit is the value of the --config flag ("" if unset).
func Resolve(explicit string) (path string, required bool, err error) {
	if explicit != "" {
		return explicit, true, nil
	}
	if fromEnv := os.Getenv(EnvironmentVariable); fromEnv != "" {
		return fromEnv, true, nil
	}
	path, err = DefaultPath()
	return path, false, err
}

// Load resolves the config file location and loads it. The default
// location is allowed to be absent, in which case Default() is
// returned.
func Load(explicit string) (*Config, error) {
	path, required, err := Resolve(explicit)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a specific file path, layered over
// Default(), and expands ${VAR} references in paths. Unknown keys are
// rejected so that typos surface instead of being silently ignored.
func LoadFile(path string) (*Config, error) {
	cfg, err := LoadFileRaw(path)
	if err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// LoadFileRaw is LoadFile without variable expansion. Callers that
// rewrite the file use it so ${VAR} references are saved back intact.
func LoadFileRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory. The file is
// readable only by the current user since it names a subscription.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	c.Paths.Pipelines = expandVars(c.Paths.Pipelines)
	c.Paths.State = expandVars(c.Paths.State)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Paths.Pipelines == "" {
		errs = append(errs, fmt.Errorf("paths.pipelines is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}
	return errors.Join(errs...)
}
