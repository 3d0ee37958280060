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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/gala/pkg/ux"
	"github.com/AleutianAI/gala/pkg/validation"
	"github.com/AleutianAI/gala/services/party/storage/badger"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	runsJSONOutput bool // Output as JSON
	runsListLimit  int  // Max archived runs to list
	runsClearForce bool // Confirm deletion of the whole archive
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// runsCmd is the parent command for the local run archive.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the local run archive",
	Long: `Commands for the local run archive.

Runs land in the archive when searches execute with 'gala find --store'
or through the server. The archive lives under the configured data
directory (default ~/.gala/runs).

Subcommands:
  list   - List archived runs, newest first
  show   - Show one archived run by ID
  clear  - Delete every archived run

Examples:
  gala runs list
  gala runs list --limit 5 --json
  gala runs show 2f1f1e9c-6b2a-4a9e-8a1c-3f0a4f6b2d11
  gala runs clear --force`,
}

// runsListCmd lists archived runs.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	Run:   runRunsList,
}

// runsShowCmd shows one archived run.
var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show one archived run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsShow,
}

// runsClearCmd deletes the whole archive.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "DANGER: Deletes every archived run",
	Run:   runRunsClear,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	runsCmd.PersistentFlags().BoolVar(&runsJSONOutput, "json", false,
		"Output as JSON for scripting")
	runsListCmd.Flags().IntVar(&runsListLimit, "limit", 20,
		"Maximum runs to list (0 = all)")
	runsClearCmd.Flags().BoolVar(&runsClearForce, "force", false,
		"Required to confirm the deletion of all archived runs")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsClearCmd)
	rootCmd.AddCommand(runsCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runRunsList lists archived runs.
func runRunsList(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, db, err := openRunStore()
	if err != nil {
		outputError(runsJSONOutput, "Failed to open run archive", err)
		os.Exit(ExitError)
	}
	defer db.Close()

	runs, err := store.List(ctx, runsListLimit)
	if err != nil {
		outputError(runsJSONOutput, "Failed to list runs", err)
		os.Exit(ExitError)
	}

	if runsJSONOutput {
		outputJSON(map[string]interface{}{
			"runs":  runs,
			"count": len(runs),
		})
		os.Exit(ExitSuccess)
	}

	if len(runs) == 0 {
		ux.Info("The run archive is empty. Try 'gala find party.yaml --store'.")
		os.Exit(ExitSuccess)
	}

	ux.Title(fmt.Sprintf("Archived runs (%d)", len(runs)))
	for _, r := range runs {
		verdict := "no clique"
		icon := ux.IconWarning
		if r.Found {
			verdict = "clique " + formatIDs(r.CliqueIDs)
			icon = ux.IconSuccess
		}
		ux.ItemStatus(
			fmt.Sprintf("%s  %s", shortRunID(r.ID), r.PartyName),
			icon,
			fmt.Sprintf("%s, %d guests, %s", verdict, r.PartySize, humanAge(r.CreatedAt)),
		)
	}
	os.Exit(ExitSuccess)
}

// runRunsShow shows one archived run.
func runRunsShow(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id := args[0]
	if err := validation.ValidateRunID(id); err != nil {
		outputError(runsJSONOutput, "Invalid run ID", err)
		os.Exit(ExitError)
	}

	store, db, err := openRunStore()
	if err != nil {
		outputError(runsJSONOutput, "Failed to open run archive", err)
		os.Exit(ExitError)
	}
	defer db.Close()

	rec, err := store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, badger.ErrRunNotFound) {
			outputError(runsJSONOutput, "Run not found", fmt.Errorf("no archived run with id %s", id))
		} else {
			outputError(runsJSONOutput, "Failed to read run", err)
		}
		os.Exit(ExitError)
	}

	if runsJSONOutput {
		outputJSON(rec)
		os.Exit(ExitSuccess)
	}

	verdict := "no celebrity clique"
	if rec.Found {
		verdict = fmt.Sprintf("clique %s (cardinality %d)", formatIDs(rec.CliqueIDs), rec.Cardinality)
	}
	ux.Box(fmt.Sprintf("Run %s", rec.ID), fmt.Sprintf(
		"Party:     %s\nGuests:    %d\nVerdict:   %s\nEvaluated: %d subsets in %dms\nParallel:  %t\nDigest:    %s\nWhen:      %s",
		rec.PartyName,
		rec.PartySize,
		verdict,
		rec.SubsetsEvaluated,
		rec.ElapsedMs,
		rec.Parallel,
		rec.PartyDigest,
		rec.CreatedAt.Local().Format(time.RFC1123),
	))
	os.Exit(ExitSuccess)
}

// runRunsClear deletes every archived run.
func runRunsClear(cmd *cobra.Command, args []string) {
	if !runsClearForce {
		ux.WarningBox("Confirmation required",
			"This deletes every archived run. Re-run with --force to proceed.")
		os.Exit(ExitError)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, db, err := openRunStore()
	if err != nil {
		outputError(runsJSONOutput, "Failed to open run archive", err)
		os.Exit(ExitError)
	}
	defer db.Close()

	deleted, err := store.Clear(ctx)
	if err != nil {
		outputError(runsJSONOutput, "Failed to clear runs", err)
		os.Exit(ExitError)
	}

	if runsJSONOutput {
		outputJSON(map[string]interface{}{"deleted": deleted})
	} else {
		ux.Success(fmt.Sprintf("Deleted %d archived runs", deleted))
	}
	os.Exit(ExitSuccess)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// shortRunID abbreviates a UUID for list output.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// humanAge renders how long ago a run happened.
func humanAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
