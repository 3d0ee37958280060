// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"
)

// =============================================================================
// COMMAND TREE TESTS
// =============================================================================

// TestRootCommand_Config verifies the root command's basic wiring.
func TestRootCommand_Config(t *testing.T) {
	if rootCmd.Use != "gala" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "gala")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.PersistentPreRun == nil {
		t.Error("rootCmd.PersistentPreRun is nil; config and logging never initialize")
	}
	if rootCmd.PersistentPostRun == nil {
		t.Error("rootCmd.PersistentPostRun is nil; the logger never closes")
	}
}

// TestRootCommand_Subcommands verifies every command registered itself.
func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"find", "graph", "runs", "watch", "serve"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered on the root command", name)
		}
	}
}

// TestRootCommand_PersistentFlags verifies the global flags.
func TestRootCommand_PersistentFlags(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("personality") == nil {
		t.Error("persistent flag --personality not registered")
	}

	verbose := rootCmd.PersistentFlags().Lookup("verbose")
	if verbose == nil {
		t.Fatal("persistent flag --verbose not registered")
	}
	if verbose.Shorthand != "v" {
		t.Errorf("--verbose shorthand = %q, want %q", verbose.Shorthand, "v")
	}
}

// TestRunsCommand_Subcommands verifies the runs command tree.
func TestRunsCommand_Subcommands(t *testing.T) {
	want := []string{"list", "show", "clear"}

	registered := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q not registered on runs", name)
		}
	}
}

// TestCommandFlags verifies each command's flag surface in one sweep.
func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"find", []string{"json", "parallel", "workers", "store", "timeout", "fail-if-empty"}},
		{"graph", []string{"format", "out", "render", "highlight"}},
		{"watch", []string{"parallel", "store", "json", "debounce"}},
		{"serve", []string{"port", "debug", "data-dir", "in-memory", "rps"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			var found bool
			for _, c := range rootCmd.Commands() {
				if c.Name() != tt.command {
					continue
				}
				found = true
				for _, flagName := range tt.flags {
					if c.Flags().Lookup(flagName) == nil {
						t.Errorf("%s: flag --%s not registered", tt.command, flagName)
					}
				}
			}
			if !found {
				t.Fatalf("command %q not found", tt.command)
			}
		})
	}
}

// TestRunsCommandFlags verifies the archive command flags, including the
// persistent --json shared by the subcommands.
func TestRunsCommandFlags(t *testing.T) {
	if runsCmd.PersistentFlags().Lookup("json") == nil {
		t.Error("runs: persistent flag --json not registered")
	}
	if runsListCmd.Flags().Lookup("limit") == nil {
		t.Error("runs list: flag --limit not registered")
	}
	if runsClearCmd.Flags().Lookup("force") == nil {
		t.Error("runs clear: flag --force not registered")
	}
}

// TestCommands_RequireDatasetArg verifies the dataset commands demand
// exactly one positional argument.
func TestCommands_RequireDatasetArg(t *testing.T) {
	for _, c := range []struct {
		name string
		cmd  interface {
			ValidateArgs([]string) error
		}
	}{
		{"find", findCmd},
		{"graph", graphCmd},
		{"watch", watchCmd},
	} {
		t.Run(c.name, func(t *testing.T) {
			if err := c.cmd.ValidateArgs([]string{}); err == nil {
				t.Errorf("%s accepted zero arguments", c.name)
			}
			if err := c.cmd.ValidateArgs([]string{"party.yaml"}); err != nil {
				t.Errorf("%s rejected one argument: %v", c.name, err)
			}
			if err := c.cmd.ValidateArgs([]string{"a.yaml", "b.yaml"}); err == nil {
				t.Errorf("%s accepted two arguments", c.name)
			}
		})
	}
}
