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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/gala/cmd/gala/config"
	"github.com/AleutianAI/gala/pkg/validation"
	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/dataset"
	"github.com/AleutianAI/gala/services/party/storage/badger"
)

// Exit codes for scripting.
const (
	ExitSuccess = 0
	ExitError   = 1

	// ExitNoClique is returned by find --fail-if-empty when the party
	// has no celebrity clique.
	ExitNoClique = 2
)

// loadRoster reads a roster file and names the party.
//
// The name comes from the roster document when present, otherwise from
// the sanitized file stem, so "office party.yaml" still archives under
// a storable name.
func loadRoster(path string) (*clique.Party, string, error) {
	p, f, err := dataset.Load(path)
	if err != nil {
		return nil, "", err
	}

	name := f.Name
	if name == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if sanitized, err := validation.SanitizePartyName(stem); err == nil {
			name = sanitized
		} else {
			name = "party"
		}
	}
	return p, name, nil
}

// resolveDataDir picks the archive directory from the config, the
// GALA_DATA_DIR environment variable, or the home directory, in that order.
func resolveDataDir() string {
	if dir := config.Global.Storage.DataDir; dir != "" {
		return dir
	}
	if env := os.Getenv("GALA_DATA_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("data", "gala-runs")
	}
	return filepath.Join(home, ".gala", "runs")
}

// openRunStore opens the local run archive.
//
// The caller must Close the returned DB. Respects storage.in_memory
// from the config, which is mostly useful for tests and dry runs.
func openRunStore() (*badger.RunStore, *badger.DB, error) {
	cfg := badger.DefaultConfig()
	cfg.Path = resolveDataDir()
	cfg.Logger = cliLogger.Slog()
	if config.Global.Storage.InMemory {
		cfg = badger.InMemoryConfig()
		cfg.Logger = cliLogger.Slog()
	}

	db, err := badger.OpenDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open run archive: %w", err)
	}
	store, err := badger.NewRunStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// outputJSON writes any result as indented JSON on stdout.
func outputJSON(result interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(ExitError)
	}
}

// outputError reports a failure in the requested output mode.
func outputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		outputJSON(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}

// formatIDs renders clique member IDs for human output.
func formatIDs(ids []uint64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
