// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"slices"
	"strings"
	"testing"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/cmd/mario/commands"
)

// TestCommandTreeSummaries walks the production command tree and checks
// that every command below the root has a Summary for the parent's help
// listing, and that leaf commands can build their flag sets.
func TestCommandTreeSummaries(t *testing.T) {
	walkCommands(commands.Root(), nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if len(path) > 1 && command.Summary == "" {
			t.Errorf("%s: missing Summary", name)
		}
		if command.Run != nil {
			command.FlagSet()
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: neither Run nor Subcommands", name)
		}
	})
}

// TestCommandTreeNames checks that sibling commands have distinct names.
func TestCommandTreeNames(t *testing.T) {
	walkCommands(commands.Root(), nil, func(command *cli.Command, path []string) {
		var names []string
		for _, sub := range command.Subcommands {
			if slices.Contains(names, sub.Name) {
				t.Errorf("%s: duplicate subcommand %q", strings.Join(path, " "), sub.Name)
			}
			names = append(names, sub.Name)
		}
	})
}

func TestStripVerbose(t *testing.T) {
	tests := []struct {
		args        []string
		wantArgs    []string
		wantVerbose bool
	}{
		{[]string{"-v", "pipeline", "list"}, []string{"pipeline", "list"}, true},
		{[]string{"--verbose", "version"}, []string{"version"}, true},
		{[]string{"pipeline", "run", "-v"}, []string{"pipeline", "run", "-v"}, false},
		{nil, nil, false},
	}
	for _, test := range tests {
		args, verbose := stripVerbose(test.args)
		if !slices.Equal(args, test.wantArgs) || verbose != test.wantVerbose {
			t.Errorf("stripVerbose(%q) = %q, %v; want %q, %v",
				test.args, args, verbose, test.wantArgs, test.wantVerbose)
		}
	}
}

// walkCommands recursively visits every command in the tree,
// calling visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
