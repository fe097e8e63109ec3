// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package clitest sets up an isolated environment for command tests: a
// fake factory behind cli.Dial, captured output, a fake clock, and a
// scratch working directory with no real .env or user config.
package clitest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/lib/clock"
	"github.com/jeffbrennan/mario/lib/config"
	"github.com/jeffbrennan/mario/lib/environment"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/factory/factorytest"
)

// Epoch is the fake clock's starting time.
var Epoch = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// Harness is one isolated command test environment. Tests using it must
// not call t.Parallel: it replaces package-level hooks in cli.
type Harness struct {
	Fake   *factorytest.Fake
	Clock  *clock.FakeClock
	Output *bytes.Buffer

	// Dir is the working directory; relative paths resolve inside it.
	Dir string

	// StateDir is where the run ledger is written.
	StateDir string

	// Dials counts cli.Dial calls.
	Dials int
}

// New installs a harness for the duration of t. The factory target
// comes from the process environment, matching the fake's own target.
func New(t *testing.T) *Harness {
	t.Helper()
	dir := t.TempDir()
	harness := &Harness{
		Fake:     factorytest.New(),
		Clock:    clock.Fake(Epoch),
		Output:   &bytes.Buffer{},
		Dir:      dir,
		StateDir: filepath.Join(dir, "state"),
	}

	target := harness.Fake.Target()
	t.Setenv(environment.KeySubscriptionID, target.SubscriptionID)
	t.Setenv(environment.KeyResourceGroup, target.ResourceGroup)
	t.Setenv(environment.KeyFactoryName, target.FactoryName)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("NO_COLOR", "1")

	configPath := filepath.Join(dir, "mario.yaml")
	cfg := config.Default()
	cfg.Paths.State = harness.StateDir
	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	t.Setenv(config.EnvironmentVariable, configPath)
	t.Chdir(dir)

	originalDial, originalStdout, originalClock := cli.Dial, cli.Stdout, cli.Clock
	cli.Dial = func(_ context.Context, dialed factory.Target) (factory.Service, error) {
		harness.Dials++
		if dialed != target {
			t.Errorf("dialed %+v, want %+v", dialed, target)
		}
		return harness.Fake, nil
	}
	cli.Stdout = harness.Output
	cli.Clock = harness.Clock
	t.Cleanup(func() {
		cli.Dial, cli.Stdout, cli.Clock = originalDial, originalStdout, originalClock
	})
	return harness
}

// Unset removes a required factory variable from the environment.
func (h *Harness) Unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
}

// WriteFile writes content to a path relative to Dir and returns the
// absolute path.
func (h *Harness) WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Run parses flags and runs command the way Execute would.
func (h *Harness) Run(t *testing.T, command *cli.Command, args ...string) error {
	t.Helper()
	flagSet := command.FlagSet()
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	return command.Run(context.Background(), flagSet.Args(), Logger())
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
