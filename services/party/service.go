// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package party exposes the celebrity clique search as an HTTP service.
//
// The service wraps the clique search library with roster decoding, a
// digest-keyed result cache, an optional BadgerDB run archive, and an
// optional InfluxDB run history sink. Handlers in this package follow the
// uniform ErrorResponse contract; a party without a celebrity clique is a
// normal Found=false response, never an error status.
package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/gala/services/party/clique"
	"github.com/AleutianAI/gala/services/party/dataset"
	"github.com/AleutianAI/gala/services/party/storage/badger"
	"github.com/AleutianAI/gala/services/party/telemetry"
	"github.com/AleutianAI/gala/services/party/visualization"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "1.0.0"

// sinkWriteTimeout bounds the background run history write.
const sinkWriteTimeout = 5 * time.Second

// ServiceConfig holds configuration for the party service.
type ServiceConfig struct {
	// MaxPartySize limits the roster size accepted for analysis. The
	// search materializes all 2^n subsets, so this is a memory guard,
	// not a tuning knob.
	// Default: 20
	MaxPartySize int

	// AnalyzeTimeout bounds a single search.
	// Default: 30 seconds
	AnalyzeTimeout time.Duration

	// MaxCachedResults limits the digest cache. Oldest entries are
	// evicted first.
	// Default: 128
	MaxCachedResults int

	// Logger receives service logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultServiceConfig returns a ServiceConfig with sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxPartySize:     20,
		AnalyzeTimeout:   30 * time.Second,
		MaxCachedResults: 128,
	}
}

// Service coordinates celebrity clique searches, graph rendering, and the
// run archive.
//
// Thread Safety: all methods are safe for concurrent use.
type Service struct {
	config ServiceConfig
	logger *slog.Logger
	gen    *visualization.GraphGenerator

	store *badger.RunStore
	sink  *telemetry.RunSink

	// cache maps roster digest to the response of a completed search.
	// Identical rosters always yield the identical clique, so a hit is
	// exact; only the recorded statistics belong to the original run.
	mu    sync.RWMutex
	cache map[string]*AnalyzeResponse
	order []string
}

// NewService creates a party service. Zero-valued config fields fall back
// to DefaultServiceConfig.
func NewService(config ServiceConfig) *Service {
	defaults := DefaultServiceConfig()
	if config.MaxPartySize <= 0 {
		config.MaxPartySize = defaults.MaxPartySize
	}
	if config.AnalyzeTimeout <= 0 {
		config.AnalyzeTimeout = defaults.AnalyzeTimeout
	}
	if config.MaxCachedResults <= 0 {
		config.MaxCachedResults = defaults.MaxCachedResults
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config: config,
		logger: logger,
		gen:    visualization.NewGraphGenerator(nil),
		cache:  make(map[string]*AnalyzeResponse),
	}
}

// WithStore attaches a run archive. Returns the service for chaining.
func (s *Service) WithStore(store *badger.RunStore) *Service {
	s.store = store
	return s
}

// WithSink attaches a run history sink. Returns the service for chaining.
func (s *Service) WithSink(sink *telemetry.RunSink) *Service {
	s.sink = sink
	return s
}

// Analyze runs the celebrity clique search over the request roster.
//
// Description:
//
//	Decodes the roster into a party, consults the digest cache, and
//	otherwise runs the search under the configured timeout. Both found
//	and not-found outcomes are archived and produce a response; only
//	invalid rosters, oversized parties, timeouts, and cancellation
//	surface as errors.
//
// Inputs:
//
//	ctx - Cancellation is honored throughout the search.
//	req - The roster and search strategy. Must not be nil.
//
// Outputs:
//
//	*AnalyzeResponse - Outcome and search statistics.
//	error - dataset.ErrEmptyDataset, dataset.ErrDuplicateID,
//	        ErrPartyTooLarge, ErrAnalyzeTimeout, clique.ErrInvalidOptions,
//	        or a wrapped ctx error.
//
// Thread Safety: safe for concurrent use.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	return s.analyze(ctx, req, nil)
}

// AnalyzeWithProgress behaves like Analyze but invokes onLevel after each
// completed power set level, and bypasses the digest cache so callers
// observe a live search.
func (s *Service) AnalyzeWithProgress(ctx context.Context, req *AnalyzeRequest, onLevel func(clique.LevelProgress)) (*AnalyzeResponse, error) {
	return s.analyze(ctx, req, onLevel)
}

func (s *Service) analyze(ctx context.Context, req *AnalyzeRequest, onLevel func(clique.LevelProgress)) (*AnalyzeResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("analyze request is required")
	}
	logger := telemetry.LoggerWithTrace(ctx, s.logger)

	p, err := dataset.FromEntries(req.People)
	if err != nil {
		return nil, err
	}
	if p.Size() > s.config.MaxPartySize {
		return nil, fmt.Errorf("%w: %d guests, limit %d",
			ErrPartyTooLarge, p.Size(), s.config.MaxPartySize)
	}

	digest := p.Digest()
	if onLevel == nil {
		if resp, ok := s.cachedResponse(digest); ok {
			logger.Debug("analysis served from cache",
				slog.String("digest", digest),
				slog.Int("party_size", resp.PartySize),
			)
			return resp, nil
		}
	}

	if s.config.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.AnalyzeTimeout)
		defer cancel()
	}

	// The library returns no result on exhaustion, so track the running
	// statistics here for the not-found archive record.
	start := time.Now()
	var last clique.LevelProgress
	opts := &clique.SearchOptions{
		Parallel: req.Parallel,
		OnLevel: func(p clique.LevelProgress) {
			last = p
			if onLevel != nil {
				onLevel(p)
			}
		},
	}

	result, err := clique.FindCelebrityClique(ctx, p, opts)
	switch {
	case err == nil:
		// Found.
	case errors.Is(err, clique.ErrNoCelebrityClique):
		// A normal outcome, archived like any other run.
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s: %v", ErrAnalyzeTimeout, s.config.AnalyzeTimeout, err)
	default:
		return nil, err
	}

	resp := &AnalyzeResponse{
		PartySize: p.Size(),
		Parallel:  req.Parallel,
		Digest:    digest,
	}
	if result != nil {
		resp.Found = true
		resp.CliqueIDs = result.CliqueIDs
		resp.Cardinality = result.Cardinality
		resp.SubsetsEvaluated = int64(result.SubsetsEvaluated)
		resp.ElapsedMs = result.Duration.Milliseconds()
	} else {
		resp.SubsetsEvaluated = int64(last.Evaluated)
		resp.ElapsedMs = time.Since(start).Milliseconds()
	}

	s.archiveRun(ctx, logger, req.Name, resp)
	s.recordRun(logger, req.Name, resp)
	s.cacheResponse(digest, resp)

	logger.Info("analysis completed",
		slog.String("party", req.Name),
		slog.Int("party_size", resp.PartySize),
		slog.Bool("found", resp.Found),
		slog.Int("cardinality", resp.Cardinality),
		slog.Int64("subsets_evaluated", resp.SubsetsEvaluated),
		slog.Int64("elapsed_ms", resp.ElapsedMs),
	)
	return resp, nil
}

// archiveRun persists the run when an archive is attached. Archive
// failures degrade the response (no RunID) rather than failing it.
func (s *Service) archiveRun(ctx context.Context, logger *slog.Logger, name string, resp *AnalyzeResponse) {
	if s.store == nil {
		return
	}
	rec := &badger.RunRecord{
		PartyName:        name,
		PartySize:        resp.PartySize,
		PartyDigest:      resp.Digest,
		Found:            resp.Found,
		CliqueIDs:        resp.CliqueIDs,
		Cardinality:      resp.Cardinality,
		SubsetsEvaluated: resp.SubsetsEvaluated,
		Parallel:         resp.Parallel,
		ElapsedMs:        resp.ElapsedMs,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		logger.Warn("failed to archive run",
			slog.String("party", name),
			slog.String("error", err.Error()),
		)
		return
	}
	resp.RunID = rec.ID
	telemetry.LoggerWithRun(ctx, s.logger, rec.ID).Debug("run archived",
		slog.String("party", name),
	)
}

// recordRun ships the run to the history sink in the background.
func (s *Service) recordRun(logger *slog.Logger, name string, resp *AnalyzeResponse) {
	if s.sink == nil {
		return
	}
	pt := telemetry.RunPoint{
		PartyName:        name,
		PartySize:        resp.PartySize,
		Found:            resp.Found,
		Cardinality:      resp.Cardinality,
		SubsetsEvaluated: resp.SubsetsEvaluated,
		Parallel:         resp.Parallel,
		Elapsed:          time.Duration(resp.ElapsedMs) * time.Millisecond,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		defer cancel()
		if err := s.sink.Record(ctx, pt); err != nil {
			logger.Warn("failed to record run history",
				slog.String("party", name),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// cachedResponse returns a copy of the cached response for digest, if any.
func (s *Service) cachedResponse(digest string) (*AnalyzeResponse, bool) {
	s.mu.RLock()
	cached, ok := s.cache[digest]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	resp := *cached
	resp.Cached = true
	return &resp, true
}

// cacheResponse stores a response, evicting the oldest digest when full.
func (s *Service) cacheResponse(digest string, resp *AnalyzeResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[digest]; !ok {
		if len(s.order) >= s.config.MaxCachedResults {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.cache, oldest)
		}
		s.order = append(s.order, digest)
	}
	stored := *resp
	s.cache[digest] = &stored
}

// CacheSize returns the number of cached analysis results.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Graph renders the acquaintance graph for the request roster.
//
// With Highlight set, the celebrity clique search runs first and its
// members are styled in the output; a party without a clique renders
// unhighlighted. Oversized parties are refused only when highlighting,
// since rendering alone is linear in the roster.
func (s *Service) Graph(ctx context.Context, req *GraphRequest) (*GraphResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("graph request is required")
	}
	logger := telemetry.LoggerWithTrace(ctx, s.logger)

	p, err := dataset.FromEntries(req.People)
	if err != nil {
		return nil, err
	}

	format := visualization.FormatDOT
	if req.Format == string(visualization.FormatMermaid) {
		format = visualization.FormatMermaid
	}

	var highlight []uint64
	if req.Highlight {
		if p.Size() > s.config.MaxPartySize {
			return nil, fmt.Errorf("%w: %d guests, limit %d",
				ErrPartyTooLarge, p.Size(), s.config.MaxPartySize)
		}
		result, err := clique.FindCelebrityClique(ctx, p, nil)
		switch {
		case err == nil:
			highlight = result.CliqueIDs
		case errors.Is(err, clique.ErrNoCelebrityClique):
			logger.Debug("no celebrity clique to highlight",
				slog.String("party", req.Name))
		default:
			return nil, err
		}
	}

	graph, err := s.gen.Generate(ctx, p, highlight, format)
	if err != nil {
		return nil, err
	}
	return &GraphResponse{
		Format:    string(format),
		Graph:     graph,
		CliqueIDs: highlight,
	}, nil
}

// Runs lists archived runs, newest first. A limit of 0 returns all runs.
func (s *Service) Runs(ctx context.Context, limit int) (*ListRunsResponse, error) {
	if s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &ListRunsResponse{Runs: runs, Count: len(runs)}, nil
}

// Run fetches a single archived run by ID.
func (s *Service) Run(ctx context.Context, id string) (*badger.RunRecord, error) {
	if s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return s.store.Get(ctx, id)
}

// ClearRuns deletes every archived run and returns the count removed.
func (s *Service) ClearRuns(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	return s.store.Clear(ctx)
}

// Ready reports whether the service can accept work. A configured but
// unreachable archive marks the service not ready.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	resp := &ReadyResponse{
		Ready:             true,
		ArchiveConfigured: s.store != nil,
		ArchivedRuns:      -1,
	}
	if s.store == nil {
		return resp
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("run archive not reachable",
			slog.String("error", err.Error()))
		resp.Ready = false
		return resp
	}
	resp.ArchivedRuns = count
	return resp
}
