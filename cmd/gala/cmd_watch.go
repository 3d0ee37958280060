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
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/gala/cmd/gala/config"
	"github.com/AleutianAI/gala/cmd/gala/internal/watch"
	"github.com/AleutianAI/gala/pkg/ux"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	watchParallel   bool          // Use the worker-pool search on re-runs
	watchStore      bool          // Archive every re-run
	watchJSONOutput bool          // One JSON line per re-run
	watchDebounce   time.Duration // Quiet window before re-running
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// watchCmd re-runs the search whenever the roster file changes.
//
// # Description
//
// Watches the roster's directory through fsnotify, so editor
// save-by-rename is caught, and debounces bursts of events into one
// re-run. A roster that fails to parse mid-edit logs a warning and
// keeps watching; the next valid save triggers a fresh search.
//
// # Examples
//
//	gala watch party.yaml
//	gala watch party.yaml --store          # Archive every re-run
//	gala watch party.yaml --json           # One JSON line per re-run
//	gala watch party.yaml --debounce 1s    # Calmer editors
var watchCmd = &cobra.Command{
	Use:   "watch DATASET",
	Short: "Re-run the clique search whenever the roster changes",
	Long: `Watch a roster file and re-run the celebrity clique search on change.

The search runs once at startup and again after every save. Bursts of
filesystem events within the debounce window collapse into a single
re-run. Stop with Ctrl-C.

Examples:
  gala watch party.yaml
  gala watch party.yaml --store --parallel
  gala watch party.yaml --json | jq .found`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	watchCmd.Flags().BoolVar(&watchParallel, "parallel", false,
		"Evaluate wide subset levels with a worker pool")
	watchCmd.Flags().BoolVar(&watchStore, "store", false,
		"Archive every re-run in the local run store")
	watchCmd.Flags().BoolVar(&watchJSONOutput, "json", false,
		"Emit one JSON line per re-run (NDJSON)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond,
		"Quiet window before a change triggers a re-run")

	rootCmd.AddCommand(watchCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runWatch starts the watch loop.
func runWatch(cmd *cobra.Command, args []string) {
	path := args[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First verdict before the watch begins.
	watchSearchOnce(ctx, path)

	watcher, err := watch.NewRosterWatcher(path, func(changes []watch.Change) {
		if !watchJSONOutput {
			ux.Muted(fmt.Sprintf("%s changed (%s)", path, changes[len(changes)-1].Op))
		}
		watchSearchOnce(ctx, path)
	}, &watch.Options{
		DebounceWindow: watchDebounce,
		BufferSize:     64,
	})
	if err != nil {
		outputError(watchJSONOutput, "Failed to create watcher", err)
		os.Exit(ExitError)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		outputError(watchJSONOutput, "Failed to start watcher", err)
		os.Exit(ExitError)
	}

	if !watchJSONOutput {
		ux.Info(fmt.Sprintf("Watching %s (Ctrl-C to stop)", watcher.Target()))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if !watchJSONOutput {
		fmt.Println()
		ux.Muted("Stopped watching.")
	}
	os.Exit(ExitSuccess)
}

// watchSearchOnce loads the roster and runs one search. Failures keep
// the watch alive; a half-saved roster will be valid again shortly.
func watchSearchOnce(ctx context.Context, path string) {
	searchCtx, cancel := context.WithTimeout(ctx, config.Global.Search.GetTimeout())
	defer cancel()

	p, name, err := loadRoster(path)
	if err != nil {
		if watchJSONOutput {
			emitWatchLine(map[string]interface{}{"error": err.Error()})
		} else {
			ux.Warning(fmt.Sprintf("Roster not searchable: %v", err))
		}
		return
	}

	parallel := watchParallel || config.Global.Search.Parallel
	out, err := searchParty(searchCtx, p, name, parallel, 0, nil)
	if err != nil {
		if watchJSONOutput {
			emitWatchLine(map[string]interface{}{"error": err.Error()})
		} else {
			ux.Warning(fmt.Sprintf("Search failed: %v", err))
		}
		return
	}

	if watchStore {
		if id, err := archiveFindRun(out); err != nil {
			cliLogger.Warn("run archive failed", "error", err)
		} else {
			out.RunID = id
		}
	}

	if watchJSONOutput {
		emitWatchLine(out)
		return
	}

	stamp := time.Now().Format("15:04:05")
	if out.Found {
		ux.Success(fmt.Sprintf("[%s] %s: celebrity clique %s (%d subsets, %dms)",
			stamp, out.Party, formatIDs(out.CliqueIDs), out.SubsetsEvaluated, out.ElapsedMs))
	} else {
		ux.Warning(fmt.Sprintf("[%s] %s: no celebrity clique (%d subsets, %dms)",
			stamp, out.Party, out.SubsetsEvaluated, out.ElapsedMs))
	}
	if out.RunID != "" {
		ux.Muted(fmt.Sprintf("  archived as %s", out.RunID))
	}
}

// emitWatchLine writes one compact JSON line, NDJSON style.
func emitWatchLine(v interface{}) {
	if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
	}
}
