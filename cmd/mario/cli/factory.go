// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jeffbrennan/mario/lib/config"
	"github.com/jeffbrennan/mario/lib/environment"
	"github.com/jeffbrennan/mario/lib/factory"
)

// Dial opens the factory service for a resolved target. Tests replace
// it with a function returning a factorytest.Fake.
var Dial = func(ctx context.Context, target factory.Target) (factory.Service, error) {
	return factory.Connect(target)
}

// FactoryConnection holds the flags that locate the target factory.
// Embed it in a command's params struct; [BindFlags] registers its
// flags through AddFlags.
type FactoryConnection struct {
	// EnvFile is the .env file to read. Empty reads ./.env if present.
	EnvFile string `json:"env_file,omitempty"`

	// ConfigPath overrides the user config file location.
	ConfigPath string `json:"config,omitempty"`
}

// AddFlags registers --env-file and --config.
func (c *FactoryConnection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.EnvFile, "env-file", "", "dotenv file with "+environment.KeySubscriptionID+", "+
		environment.KeyResourceGroup+" and "+environment.KeyFactoryName+" (default ./.env when present)")
	flagSet.StringVar(&c.ConfigPath, "config", "", "mario config file (default $"+config.EnvironmentVariable+
		" or the user config directory)")
}

// Config loads the user config file.
func (c *FactoryConnection) Config() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, Validation("%w", err)
	}
	return cfg, nil
}

// Resolve loads the config file and the environment and returns the
// target factory. A missing key is a validation error, reported before
// any remote call.
func (c *FactoryConnection) Resolve() (*environment.Environment, *config.Config, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, nil, err
	}
	env, err := environment.Load(environment.Options{
		File: c.EnvFile,
		Defaults: map[string]string{
			environment.KeySubscriptionID: cfg.Factory.SubscriptionID,
			environment.KeyResourceGroup:  cfg.Factory.ResourceGroup,
			environment.KeyFactoryName:    cfg.Factory.DataFactory,
		},
	})
	if err != nil {
		var missing *environment.MissingError
		if errors.As(err, &missing) {
			return nil, nil, Validation("%w", err)
		}
		return nil, nil, Validation("loading environment: %w", err)
	}
	return env, cfg, nil
}

// Connection is an open factory service with the settings it was
// resolved from.
type Connection struct {
	Service     factory.Service
	Target      factory.Target
	Environment *environment.Environment
	Config      *config.Config
}

// Connect resolves the target and dials it.
func (c *FactoryConnection) Connect(ctx context.Context, logger *slog.Logger) (*Connection, error) {
	env, cfg, err := c.Resolve()
	if err != nil {
		return nil, err
	}
	return Open(ctx, logger, env, cfg)
}

// Open dials the factory named by an already resolved environment.
// Commands that do local work between resolving and the first remote
// call use Resolve and Open separately.
func Open(ctx context.Context, logger *slog.Logger, env *environment.Environment, cfg *config.Config) (*Connection, error) {
	target := factory.TargetFrom(env)
	logger.Debug("resolved factory target",
		"factory", target.FactoryName,
		"resource_group", target.ResourceGroup,
		"sources", env.Sources,
	)

	service, err := Dial(ctx, target)
	if err != nil {
		return nil, Internal("connecting to factory %s: %w", env, err)
	}
	return &Connection{Service: service, Target: target, Environment: env, Config: cfg}, nil
}
