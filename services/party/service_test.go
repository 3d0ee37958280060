// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package party

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/dataset"
	"github.com/AleutianAI/gala/services/party/storage/badger"
)

// newArchiveService returns a service backed by an in-memory run archive.
func newArchiveService(t *testing.T, config ServiceConfig) (*Service, *badger.RunStore) {
	t.Helper()

	db, err := badger.OpenDB(badger.InMemoryConfig())
	if err != nil {
		t.Fatalf("failed to open in-memory archive: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close archive: %v", err)
		}
	})

	store, err := badger.NewRunStore(db)
	if err != nil {
		t.Fatalf("failed to create run store: %v", err)
	}
	return NewService(config).WithStore(store), store
}

// strangers returns n guests who know nobody but themselves.
func strangers(n int) []dataset.Entry {
	entries := make([]dataset.Entry, 0, n)
	for id := uint64(1); id <= uint64(n); id++ {
		entries = append(entries, dataset.Entry{ID: id})
	}
	return entries
}

func demoRequest() *AnalyzeRequest {
	return &AnalyzeRequest{Name: "demo", People: dataset.DemoEntries}
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(ServiceConfig{})

	if svc.config.MaxPartySize != 20 {
		t.Errorf("expected MaxPartySize 20, got %d", svc.config.MaxPartySize)
	}
	if svc.config.AnalyzeTimeout <= 0 {
		t.Error("expected a positive AnalyzeTimeout")
	}
	if svc.config.MaxCachedResults != 128 {
		t.Errorf("expected MaxCachedResults 128, got %d", svc.config.MaxCachedResults)
	}
	if svc.CacheSize() != 0 {
		t.Errorf("expected empty cache, got %d entries", svc.CacheSize())
	}
}

func TestService_Analyze_Demo(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	resp, err := svc.Analyze(context.Background(), demoRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !resp.Found {
		t.Fatal("expected a celebrity clique in the demo roster")
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(resp.CliqueIDs, want) {
		t.Errorf("expected clique %v, got %v", want, resp.CliqueIDs)
	}
	if resp.Cardinality != 3 {
		t.Errorf("expected cardinality 3, got %d", resp.Cardinality)
	}
	if resp.PartySize != 7 {
		t.Errorf("expected party size 7, got %d", resp.PartySize)
	}
	if resp.Digest == "" {
		t.Error("expected a roster digest")
	}
	if resp.RunID != "" {
		t.Errorf("expected no run ID without an archive, got %q", resp.RunID)
	}
	if resp.Cached {
		t.Error("first analysis must not be cached")
	}
}

func TestService_Analyze_SecondCallIsCached(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	first, err := svc.Analyze(context.Background(), demoRequest())
	if err != nil {
		t.Fatalf("first Analyze failed: %v", err)
	}
	second, err := svc.Analyze(context.Background(), demoRequest())
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}

	if !second.Cached {
		t.Error("expected the second analysis to be served from cache")
	}
	if !reflect.DeepEqual(second.CliqueIDs, first.CliqueIDs) {
		t.Errorf("cached clique %v differs from original %v", second.CliqueIDs, first.CliqueIDs)
	}
	if second.Digest != first.Digest {
		t.Errorf("cached digest %q differs from original %q", second.Digest, first.Digest)
	}
	if svc.CacheSize() != 1 {
		t.Errorf("expected 1 cached result, got %d", svc.CacheSize())
	}
}

func TestService_Analyze_NotFoundIsAResponse(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	resp, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Name:   "loners",
		People: strangers(3),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if resp.Found {
		t.Fatal("expected no celebrity clique among mutual strangers")
	}
	if len(resp.CliqueIDs) != 0 {
		t.Errorf("expected no clique IDs, got %v", resp.CliqueIDs)
	}
	if resp.Cardinality != 0 {
		t.Errorf("expected zero cardinality, got %d", resp.Cardinality)
	}
	// All 2^3-1 non-empty subsets must have been checked.
	if resp.SubsetsEvaluated != 7 {
		t.Errorf("expected 7 subsets evaluated, got %d", resp.SubsetsEvaluated)
	}
}

func TestService_Analyze_PartyTooLarge(t *testing.T) {
	svc := NewService(ServiceConfig{MaxPartySize: 3})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{People: strangers(4)})
	if !errors.Is(err, ErrPartyTooLarge) {
		t.Fatalf("expected ErrPartyTooLarge, got %v", err)
	}
	if !strings.Contains(err.Error(), "limit 3") {
		t.Errorf("expected the limit in the error, got %q", err.Error())
	}
}

func TestService_Analyze_RosterErrors(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	tests := []struct {
		name    string
		people  []dataset.Entry
		wantErr error
	}{
		{
			name:    "empty roster",
			people:  nil,
			wantErr: dataset.ErrEmptyDataset,
		},
		{
			name: "duplicate guest",
			people: []dataset.Entry{
				{ID: 1, Knows: []uint64{2}},
				{ID: 1},
			},
			wantErr: dataset.ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), &AnalyzeRequest{People: tt.people})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestService_Analyze_NilRequest(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	if _, err := svc.Analyze(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a nil request")
	}
}

func TestService_Analyze_ArchivesRuns(t *testing.T) {
	svc, store := newArchiveService(t, DefaultServiceConfig())
	ctx := context.Background()

	found, err := svc.Analyze(ctx, demoRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if found.RunID == "" {
		t.Fatal("expected an archived run ID")
	}

	rec, err := store.Get(ctx, found.RunID)
	if err != nil {
		t.Fatalf("failed to fetch archived run: %v", err)
	}
	if !rec.Found {
		t.Error("archived run should record the found outcome")
	}
	if !reflect.DeepEqual(rec.CliqueIDs, found.CliqueIDs) {
		t.Errorf("archived clique %v differs from response %v", rec.CliqueIDs, found.CliqueIDs)
	}
	if rec.PartyDigest != found.Digest {
		t.Errorf("archived digest %q differs from response %q", rec.PartyDigest, found.Digest)
	}

	// Not-found outcomes are archived too.
	missing, err := svc.Analyze(ctx, &AnalyzeRequest{Name: "loners", People: strangers(3)})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if missing.RunID == "" {
		t.Fatal("expected the not-found run to be archived")
	}
	rec, err = store.Get(ctx, missing.RunID)
	if err != nil {
		t.Fatalf("failed to fetch archived run: %v", err)
	}
	if rec.Found {
		t.Error("archived run should record the not-found outcome")
	}
	if rec.PartyName != "loners" {
		t.Errorf("expected party name 'loners', got %q", rec.PartyName)
	}
}

func TestService_AnalyzeWithProgress_BypassesCache(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	ctx := context.Background()
	req := &AnalyzeRequest{Name: "loners", People: strangers(3)}

	if _, err := svc.Analyze(ctx, req); err != nil {
		t.Fatalf("warm-up Analyze failed: %v", err)
	}

	var levels []clique.LevelProgress
	resp, err := svc.AnalyzeWithProgress(ctx, req, func(p clique.LevelProgress) {
		levels = append(levels, p)
	})
	if err != nil {
		t.Fatalf("AnalyzeWithProgress failed: %v", err)
	}

	if resp.Cached {
		t.Error("progress searches must not be served from cache")
	}
	// Three guests, no clique: every level completes and reports.
	if len(levels) != 3 {
		t.Fatalf("expected 3 level callbacks, got %d", len(levels))
	}
	for i, p := range levels {
		if p.Cardinality != i+1 {
			t.Errorf("level %d: expected cardinality %d, got %d", i, i+1, p.Cardinality)
		}
	}
	if last := levels[len(levels)-1]; last.Evaluated != 7 {
		t.Errorf("expected 7 subsets evaluated by the last level, got %d", last.Evaluated)
	}
}

func TestService_Analyze_CacheEviction(t *testing.T) {
	svc := NewService(ServiceConfig{MaxCachedResults: 2})
	ctx := context.Background()

	for _, n := range []int{2, 3, 4} {
		if _, err := svc.Analyze(ctx, &AnalyzeRequest{People: strangers(n)}); err != nil {
			t.Fatalf("Analyze of %d strangers failed: %v", n, err)
		}
	}

	if svc.CacheSize() != 2 {
		t.Errorf("expected cache capped at 2 entries, got %d", svc.CacheSize())
	}
}

func TestService_Graph_DOT(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	resp, err := svc.Graph(context.Background(), &GraphRequest{
		Name:   "demo",
		People: dataset.DemoEntries,
	})
	if err != nil {
		t.Fatalf("Graph failed: %v", err)
	}

	if resp.Format != "dot" {
		t.Errorf("expected format 'dot', got %q", resp.Format)
	}
	if !strings.Contains(resp.Graph, "digraph party {") {
		t.Error("expected DOT output")
	}
	if !strings.Contains(resp.Graph, "g4 -> g1;") {
		t.Error("expected the edge from guest 4 to guest 1")
	}
	if strings.Contains(resp.Graph, "g1 -> g1;") {
		t.Error("reflexive acquaintance is implicit and should not be drawn")
	}
	if len(resp.CliqueIDs) != 0 {
		t.Errorf("expected no highlight without the flag, got %v", resp.CliqueIDs)
	}
}

func TestService_Graph_HighlightsClique(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	resp, err := svc.Graph(context.Background(), &GraphRequest{
		People:    dataset.DemoEntries,
		Format:    "mermaid",
		Highlight: true,
	})
	if err != nil {
		t.Fatalf("Graph failed: %v", err)
	}

	if resp.Format != "mermaid" {
		t.Errorf("expected format 'mermaid', got %q", resp.Format)
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(resp.CliqueIDs, want) {
		t.Errorf("expected highlighted clique %v, got %v", want, resp.CliqueIDs)
	}
	if !strings.Contains(resp.Graph, ":::celebrity") {
		t.Error("expected celebrity styling in the Mermaid output")
	}
}

func TestService_Graph_NoCliqueRendersPlain(t *testing.T) {
	svc := NewService(DefaultServiceConfig())

	resp, err := svc.Graph(context.Background(), &GraphRequest{
		People:    strangers(3),
		Highlight: true,
	})
	if err != nil {
		t.Fatalf("Graph failed: %v", err)
	}
	if len(resp.CliqueIDs) != 0 {
		t.Errorf("expected no highlight for a cliqueless party, got %v", resp.CliqueIDs)
	}
}

func TestService_Runs_NotConfigured(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	ctx := context.Background()

	if _, err := svc.Runs(ctx, 0); !errors.Is(err, ErrStoreNotConfigured) {
		t.Errorf("Runs: expected ErrStoreNotConfigured, got %v", err)
	}
	if _, err := svc.Run(ctx, "some-id"); !errors.Is(err, ErrStoreNotConfigured) {
		t.Errorf("Run: expected ErrStoreNotConfigured, got %v", err)
	}
	if _, err := svc.ClearRuns(ctx); !errors.Is(err, ErrStoreNotConfigured) {
		t.Errorf("ClearRuns: expected ErrStoreNotConfigured, got %v", err)
	}
}

func TestService_RunsAndClear(t *testing.T) {
	svc, _ := newArchiveService(t, DefaultServiceConfig())
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, demoRequest()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, err := svc.Analyze(ctx, &AnalyzeRequest{People: strangers(3)}); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	list, err := svc.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if list.Count != 2 {
		t.Fatalf("expected 2 archived runs, got %d", list.Count)
	}

	deleted, err := svc.ClearRuns(ctx)
	if err != nil {
		t.Fatalf("ClearRuns failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 runs deleted, got %d", deleted)
	}

	list, err = svc.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if list.Count != 0 {
		t.Errorf("expected an empty archive, got %d runs", list.Count)
	}
}

func TestService_Ready(t *testing.T) {
	t.Run("without archive", func(t *testing.T) {
		svc := NewService(DefaultServiceConfig())
		resp := svc.Ready(context.Background())

		if !resp.Ready {
			t.Error("expected ready without an archive")
		}
		if resp.ArchiveConfigured {
			t.Error("expected archive_configured=false")
		}
		if resp.ArchivedRuns != -1 {
			t.Errorf("expected -1 archived runs, got %d", resp.ArchivedRuns)
		}
	})

	t.Run("with archive", func(t *testing.T) {
		svc, _ := newArchiveService(t, DefaultServiceConfig())
		ctx := context.Background()

		if _, err := svc.Analyze(ctx, demoRequest()); err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}

		resp := svc.Ready(ctx)
		if !resp.Ready {
			t.Error("expected ready with a live archive")
		}
		if !resp.ArchiveConfigured {
			t.Error("expected archive_configured=true")
		}
		if resp.ArchivedRuns != 1 {
			t.Errorf("expected 1 archived run, got %d", resp.ArchivedRuns)
		}
	})
}
