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

	"github.com/AleutianAI/gala/cmd/gala/config"
	"github.com/AleutianAI/gala/pkg/ux"
	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/storage/badger"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	findJSONOutput  bool   // Output as JSON
	findParallel    bool   // Use the worker-pool search
	findWorkers     int    // Worker cap for --parallel
	findStore       bool   // Archive the run locally
	findTimeout     string // Override the configured search timeout
	findFailIfEmpty bool   // Exit non-zero when no clique exists
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// findCmd runs the celebrity clique search on a roster file.
//
// # Description
//
// Loads a YAML or JSON roster, expands the party's subsets by ascending
// group size, and reports the celebrity clique if the party has one. A
// party without a clique is a normal outcome and still exits zero unless
// --fail-if-empty asks otherwise.
//
// # Examples
//
//	gala find party.yaml                 # Styled result output
//	gala find party.yaml --json          # JSON output for scripting
//	gala find party.yaml --parallel      # Fan wide levels across workers
//	gala find party.yaml --store         # Archive the run locally
//	gala find party.yaml --timeout 5s    # Bound the search
var findCmd = &cobra.Command{
	Use:   "find DATASET",
	Short: "Find the celebrity clique in a roster file",
	Long: `Find the celebrity clique in a party roster.

The celebrity clique is the one group that every guest at the party
knows, whose members know nobody outside the group. A party has at most
one, so the search stops at the first (smallest) match.

Roster format (YAML or JSON by extension):
  name: launch-party
  people:
    - id: 1
      knows: [1, 2, 3]
    - id: 2
      knows: [1, 3]

Examples:
  gala find party.yaml
  gala find party.yaml --json
  gala find party.yaml --parallel --store`,
	Args: cobra.ExactArgs(1),
	Run:  runFind,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	findCmd.Flags().BoolVar(&findJSONOutput, "json", false,
		"Output as JSON for scripting")
	findCmd.Flags().BoolVar(&findParallel, "parallel", false,
		"Evaluate wide subset levels with a worker pool")
	findCmd.Flags().IntVar(&findWorkers, "workers", 0,
		"Worker cap for --parallel (0 = number of CPUs, max 8)")
	findCmd.Flags().BoolVar(&findStore, "store", false,
		"Archive the run in the local run store")
	findCmd.Flags().StringVar(&findTimeout, "timeout", "",
		"Search timeout (e.g. 5s, 1m). Defaults to the configured timeout")
	findCmd.Flags().BoolVar(&findFailIfEmpty, "fail-if-empty", false,
		"Exit with code 2 when the party has no celebrity clique")

	rootCmd.AddCommand(findCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// findResult is the machine-readable outcome of one search.
type findResult struct {
	Party            string   `json:"party"`
	Found            bool     `json:"found"`
	CliqueIDs        []uint64 `json:"clique_ids,omitempty"`
	Cardinality      int      `json:"cardinality,omitempty"`
	PartySize        int      `json:"party_size"`
	SubsetsEvaluated int64    `json:"subsets_evaluated"`
	Parallel         bool     `json:"parallel"`
	ElapsedMs        int64    `json:"elapsed_ms"`
	Digest           string   `json:"digest"`
	RunID            string   `json:"run_id,omitempty"`
}

// runFind executes the clique search on a roster file.
func runFind(cmd *cobra.Command, args []string) {
	timeout := config.Global.Search.GetTimeout()
	if findTimeout != "" {
		parsed, err := time.ParseDuration(findTimeout)
		if err != nil {
			outputError(findJSONOutput, "Invalid --timeout", err)
			os.Exit(ExitError)
		}
		timeout = parsed
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p, name, err := loadRoster(args[0])
	if err != nil {
		outputError(findJSONOutput, "Failed to load roster", err)
		os.Exit(ExitError)
	}

	parallel := findParallel || config.Global.Search.Parallel

	var spinner *ux.Spinner
	if !findJSONOutput {
		ux.Title(fmt.Sprintf("Searching %s (%d guests)", name, p.Size()))
		spinner = ux.NewSpinner("Scanning groups of 1...")
		spinner.Start()
	}

	onLevel := func(lp clique.LevelProgress) {
		if spinner != nil {
			spinner.UpdateMessage(fmt.Sprintf("Scanning groups of %d...", lp.Cardinality+1))
		}
	}

	out, err := searchParty(ctx, p, name, parallel, findWorkers, onLevel)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			if spinner != nil {
				spinner.StopWithError("Search timed out")
			}
			outputError(findJSONOutput, "Search timed out",
				fmt.Errorf("no verdict after %s (try --timeout or --parallel)", timeout))
		} else {
			if spinner != nil {
				spinner.StopWithError("Search failed")
			}
			outputError(findJSONOutput, "Search failed", err)
		}
		os.Exit(ExitError)
	}

	if spinner != nil {
		if out.Found {
			spinner.StopWithSuccess(fmt.Sprintf("Found a clique of %d", out.Cardinality))
		} else {
			spinner.StopWithWarning("No celebrity clique")
		}
	}

	if findStore {
		if id, err := archiveFindRun(out); err != nil {
			cliLogger.Warn("run archive failed", "error", err)
		} else {
			out.RunID = id
		}
	}

	if findJSONOutput {
		outputJSON(out)
	} else {
		outputFindText(out)
	}

	if !out.Found && findFailIfEmpty {
		os.Exit(ExitNoClique)
	}
	os.Exit(ExitSuccess)
}

// searchParty runs the clique search and folds the outcome into a
// findResult. The no-clique outcome returns a result, not an error.
// Shared by find and watch.
func searchParty(ctx context.Context, p *clique.Party, name string, parallel bool, workers int, onLevel func(clique.LevelProgress)) (*findResult, error) {
	if maxSize := config.Global.Search.GetMaxPartySize(); p.Size() > maxSize {
		return nil, fmt.Errorf("%d guests, limit %d (raise search.max_party_size in the config)",
			p.Size(), maxSize)
	}

	// The search returns no result on exhaustion, so track the running
	// statistics here for the not-found output.
	start := time.Now()
	var last clique.LevelProgress
	opts := &clique.SearchOptions{
		Parallel:   parallel,
		MaxWorkers: workers,
		OnLevel: func(lp clique.LevelProgress) {
			last = lp
			if onLevel != nil {
				onLevel(lp)
			}
		},
	}

	result, err := clique.FindCelebrityClique(ctx, p, opts)
	if err != nil && !errors.Is(err, clique.ErrNoCelebrityClique) {
		return nil, err
	}

	out := &findResult{
		Party:     name,
		PartySize: p.Size(),
		Parallel:  parallel,
		Digest:    p.Digest(),
	}
	if result != nil {
		out.Found = true
		out.CliqueIDs = result.CliqueIDs
		out.Cardinality = result.Cardinality
		out.SubsetsEvaluated = int64(result.SubsetsEvaluated)
		out.ElapsedMs = result.Duration.Milliseconds()
	} else {
		out.SubsetsEvaluated = int64(last.Evaluated)
		out.ElapsedMs = time.Since(start).Milliseconds()
	}
	return out, nil
}

// archiveFindRun saves the run in the local store and returns its ID.
func archiveFindRun(out *findResult) (string, error) {
	store, db, err := openRunStore()
	if err != nil {
		return "", err
	}
	defer db.Close()

	rec := &badger.RunRecord{
		PartyName:        out.Party,
		PartySize:        out.PartySize,
		PartyDigest:      out.Digest,
		Found:            out.Found,
		CliqueIDs:        out.CliqueIDs,
		Cardinality:      out.Cardinality,
		SubsetsEvaluated: out.SubsetsEvaluated,
		Parallel:         out.Parallel,
		ElapsedMs:        out.ElapsedMs,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Save(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// outputFindText renders the outcome for humans.
func outputFindText(out *findResult) {
	stats := fmt.Sprintf("%d subsets evaluated in %dms", out.SubsetsEvaluated, out.ElapsedMs)

	if out.Found {
		ux.Celebrate(fmt.Sprintf("Celebrity clique: %s", formatIDs(out.CliqueIDs)))
		ux.Info(fmt.Sprintf("Everyone at the party knows these %d; they keep to themselves. %s.",
			out.Cardinality, stats))
	} else {
		ux.Warning("No celebrity clique at this party.")
		ux.Info(fmt.Sprintf("All %d group sizes exhausted. %s.", out.PartySize, stats))
	}

	if out.RunID != "" {
		ux.Muted(fmt.Sprintf("Run archived as %s", out.RunID))
	}
}
