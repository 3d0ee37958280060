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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/gala/cmd/gala/config"
	"github.com/AleutianAI/gala/pkg/logging"
	"github.com/AleutianAI/gala/pkg/ux"
)

// --- Global Command Variables ---
var (
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	cliVerbose       bool   // Show debug logging on stderr

	// cliLogger is shared by every command. Built in PersistentPreRun,
	// closed in PersistentPostRun.
	cliLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "gala",
		Short: "A cli to find the celebrity clique hiding in your party roster",
		Long: `Gala analyzes who-knows-whom party rosters. It finds the celebrity
clique when one exists: the one group everybody at the party knows,
whose members know nobody outside the group. It can also export the
acquaintance graph, archive past runs, re-run on roster edits, and
serve the whole thing over HTTP.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading the gala config: %v", err)
			}

			// Initialize UX personality from flag, config, or environment
			switch {
			case personalityLevel != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			case config.Global.UX.Personality != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(config.Global.UX.Personality))
			default:
				ux.InitPersonality()
			}

			level := logging.LevelWarn
			if cliVerbose {
				level = logging.LevelDebug
			}
			cliLogger = logging.New(logging.Config{
				Level:   level,
				Service: "gala",
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliLogger != nil {
				_ = cliLogger.Close()
			}
		},
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, festive), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().BoolVarP(&cliVerbose, "verbose", "v", false,
		"Show debug logging on stderr")
}
