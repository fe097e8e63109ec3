// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for mario.
//
// The central type is [Command], a named subcommand with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run function.
// Commands are assembled into a tree in cmd/mario/commands and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples. Unknown commands
// and flags get a "did you mean" suggestion based on edit distance
// (threshold: distance <= 3).
//
// Flags are declared as tagged fields on a per-command params struct and
// bound by [FlagsFromParams]. Commands that talk to a data factory embed
// [FactoryConnection], which contributes --env-file and --config and
// resolves the target through lib/environment and lib/config.
//
// Errors returned by commands are plain wrapped errors, optionally
// classified with [ToolError] constructors. [ExitError] carries a
// handled non-zero exit status.
package cli
