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
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/gala/services/party/dataset"
	"github.com/AleutianAI/gala/services/party/storage/badger"
)

// partyValidate validates incoming request payloads.
var partyValidate = validator.New()

// AnalyzeRequest is the payload for POST /party/analyze.
//
// People carries the full guest roster. Acquaintance lists are directional
// and may reference guests who never showed up; those references are ignored
// during the search.
type AnalyzeRequest struct {
	// Name is an optional label for the party, recorded with the run.
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`

	// People is the guest roster. At least one guest is required.
	People []dataset.Entry `json:"people" validate:"required,min=1,dive"`

	// Parallel requests the multi-worker search strategy.
	Parallel bool `json:"parallel,omitempty"`
}

// Validate checks the request against its validation tags.
func (r *AnalyzeRequest) Validate() error {
	return partyValidate.Struct(r)
}

// AnalyzeResponse is the outcome of a celebrity clique search.
//
// Found is false when the party has no celebrity clique; that outcome is a
// normal result, not an error. At most one clique can exist, so CliqueIDs is
// either empty or the unique answer.
type AnalyzeResponse struct {
	// RunID identifies the archived run, empty when archiving is disabled.
	RunID string `json:"run_id,omitempty"`

	// Found reports whether a celebrity clique exists.
	Found bool `json:"found"`

	// CliqueIDs lists the clique members in ascending order.
	CliqueIDs []uint64 `json:"clique_ids,omitempty"`

	// Cardinality is the clique size, zero when none was found.
	Cardinality int `json:"cardinality,omitempty"`

	// PartySize is the number of guests searched.
	PartySize int `json:"party_size"`

	// SubsetsEvaluated counts candidate subsets checked before the
	// search settled.
	SubsetsEvaluated int64 `json:"subsets_evaluated"`

	// Parallel reports which search strategy ran.
	Parallel bool `json:"parallel"`

	// ElapsedMs is the search wall time in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`

	// Cached reports whether the response was served from the digest cache.
	Cached bool `json:"cached,omitempty"`

	// Digest fingerprints the roster, used as the cache key.
	Digest string `json:"digest"`
}

// GraphRequest is the payload for POST /party/graph.
type GraphRequest struct {
	// Name is an optional label used as the graph title.
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`

	// People is the guest roster to render.
	People []dataset.Entry `json:"people" validate:"required,min=1,dive"`

	// Format selects the output syntax. Defaults to "dot".
	Format string `json:"format,omitempty" validate:"omitempty,oneof=dot mermaid"`

	// Highlight runs the clique search and styles the members found.
	Highlight bool `json:"highlight,omitempty"`
}

// Validate checks the request against its validation tags.
func (r *GraphRequest) Validate() error {
	return partyValidate.Struct(r)
}

// GraphResponse carries a rendered acquaintance graph.
type GraphResponse struct {
	// Format is the syntax of Graph, "dot" or "mermaid".
	Format string `json:"format"`

	// Graph is the rendered source text.
	Graph string `json:"graph"`

	// CliqueIDs lists the highlighted members when Highlight was set
	// and a clique exists.
	CliqueIDs []uint64 `json:"clique_ids,omitempty"`
}

// ListRunsResponse is the payload for GET /party/runs.
type ListRunsResponse struct {
	// Runs holds archived runs ordered newest first.
	Runs []*badger.RunRecord `json:"runs"`

	// Count is the number of runs returned.
	Count int `json:"count"`
}

// ClearRunsResponse is the payload for DELETE /party/runs.
type ClearRunsResponse struct {
	// Deleted is the number of archived runs removed.
	Deleted int `json:"deleted"`
}

// ErrorResponse is the uniform error payload for all endpoints.
type ErrorResponse struct {
	// Error is a human readable description.
	Error string `json:"error"`

	// Code is a stable machine readable identifier.
	Code string `json:"code"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	// Ready reports whether the service can accept work.
	Ready bool `json:"ready"`

	// ArchiveConfigured reports whether a run archive is attached.
	ArchiveConfigured bool `json:"archive_configured"`

	// ArchivedRuns is the number of runs currently archived, -1 when
	// the archive is unavailable.
	ArchivedRuns int `json:"archived_runs"`
}
