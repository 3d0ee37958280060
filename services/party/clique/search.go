// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package clique

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Parallel search configuration constants.
const (
	// parallelLevelThreshold is the minimum level width to engage workers.
	// Narrow levels evaluate sequentially for better cache locality.
	parallelLevelThreshold = 64

	// maxSearchWorkers caps the number of goroutines regardless of CPU
	// count. Subset evaluation is memory-bound; more workers stop paying.
	maxSearchWorkers = 8
)

// errFoundInLevel aborts sibling workers once a worker has a match.
// Never escapes findInLevelParallel.
var errFoundInLevel = errors.New("match found in level")

// LevelProgress describes one completed power set level during a search.
type LevelProgress struct {
	// Cardinality is the subset size of the completed level.
	Cardinality int `json:"cardinality"`

	// Subsets is the number of subsets in the level, C(n, Cardinality).
	Subsets int `json:"subsets"`

	// Evaluated is the cumulative number of subsets evaluated so far.
	Evaluated int `json:"evaluated"`

	// Elapsed is the time since the search started.
	Elapsed time.Duration `json:"elapsed"`
}

// SearchOptions configures FindCelebrityClique.
type SearchOptions struct {
	// Parallel enables worker-pool evaluation of wide levels. The result
	// is identical to the sequential search; only the amount of work
	// performed before short-circuiting may differ.
	Parallel bool

	// MaxWorkers caps the worker pool in parallel mode.
	// 0 uses min(NumCPU, 8). Ignored when Parallel is false.
	MaxWorkers int

	// OnLevel, when non-nil, is invoked after each level that completes
	// without a match. Called from the search goroutine; keep it fast.
	OnLevel func(LevelProgress)
}

// DefaultSearchOptions returns options for a sequential search.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{}
}

// Validate checks the options for consistency.
func (o *SearchOptions) Validate() error {
	if o.MaxWorkers < 0 {
		return fmt.Errorf("%w: MaxWorkers must be >= 0, got %d", ErrInvalidOptions, o.MaxWorkers)
	}
	return nil
}

// workerCount resolves the effective worker pool size.
func (o *SearchOptions) workerCount() int {
	if o.MaxWorkers > 0 {
		return o.MaxWorkers
	}
	return min(runtime.NumCPU(), maxSearchWorkers)
}

// SearchResult is the outcome of a successful celebrity clique search.
type SearchResult struct {
	// Clique holds the celebrity clique's actors.
	Clique Subset

	// CliqueIDs is the clique's member IDs in ascending order.
	CliqueIDs []uint64

	// Cardinality is the clique size (level at which it was found).
	Cardinality int

	// PartySize is the number of actors that were searched.
	PartySize int

	// SubsetsEvaluated counts predicate evaluations performed. In
	// parallel mode this reflects actual work and may exceed the
	// sequential count for the same party.
	SubsetsEvaluated int

	// Parallel records whether worker-pool evaluation was enabled.
	Parallel bool

	// Duration is the wall time of the search.
	Duration time.Duration
}

// FindCelebrityClique finds the party's unique celebrity clique.
//
// Description:
//
//	Materializes the power set grouped by cardinality and walks it in
//	ascending cardinality order, skipping the empty subset (the
//	predicate is vacuously true on it), returning the first subset that
//	satisfies IsCelebrityClique. At most one celebrity clique exists for
//	any party, so the first match is the only match and repeated
//	searches over the same party return the same subset.
//
//	With opts.Parallel, levels at least 64 subsets wide are split across
//	a capped worker pool; each worker scans a contiguous index range and
//	the lowest matching index wins, so the returned clique is identical
//	to the sequential search.
//
// Inputs:
//
//	ctx - Cancellation is honored between subsets and at level
//	      boundaries. Must not be nil.
//	p - The party to search. Must not be nil.
//	opts - Search options. nil uses DefaultSearchOptions.
//
// Outputs:
//
//	*SearchResult - The clique and search statistics.
//	error - ErrNilParty, ErrInvalidOptions, ErrPartyTooLarge,
//	        ErrNoCelebrityClique, or a wrapped ctx error.
//
// Thread Safety: safe for concurrent use; the party is only read.
func FindCelebrityClique(ctx context.Context, p *Party, opts *SearchOptions) (*SearchResult, error) {
	if p == nil {
		return nil, ErrNilParty
	}
	if opts == nil {
		opts = DefaultSearchOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := startSearchSpan(ctx, p.Size(), opts.Parallel)
	defer span.End()

	start := time.Now()

	levels, err := SubsetsByCardinality(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var evaluated atomic.Int64

	for card := 1; card < len(levels); card++ {
		if err := ctx.Err(); err != nil {
			span.SetAttributes(attribute.Bool("search.cancelled", true))
			return nil, fmt.Errorf("search cancelled at cardinality %d: %w", card, err)
		}

		level := levels[card]
		winner := -1

		if opts.Parallel && len(level) >= parallelLevelThreshold {
			slog.Debug("using parallel mode for power set level",
				slog.Int("cardinality", card),
				slog.Int("level_size", len(level)),
				slog.Int("threshold", parallelLevelThreshold),
			)
			winner = findInLevelParallel(ctx, p, level, opts.workerCount(), &evaluated)
		} else {
			winner = findInLevelSequential(ctx, p, level, &evaluated)
		}

		if winner < 0 {
			// Distinguish exhaustion from cancellation before moving on.
			if err := ctx.Err(); err != nil {
				span.SetAttributes(attribute.Bool("search.cancelled", true))
				return nil, fmt.Errorf("search cancelled at cardinality %d: %w", card, err)
			}
			if opts.OnLevel != nil {
				opts.OnLevel(LevelProgress{
					Cardinality: card,
					Subsets:     len(level),
					Evaluated:   int(evaluated.Load()),
					Elapsed:     time.Since(start),
				})
			}
			continue
		}

		clique := append(Subset(nil), level[winner]...)
		result := &SearchResult{
			Clique:           clique,
			CliqueIDs:        clique.IDs(),
			Cardinality:      card,
			PartySize:        p.Size(),
			SubsetsEvaluated: int(evaluated.Load()),
			Parallel:         opts.Parallel,
			Duration:         time.Since(start),
		}

		setSearchSpanResult(span, result.SubsetsEvaluated, card, true)
		span.SetStatus(codes.Ok, "")
		recordSearchMetrics(ctx, result.Duration, result.SubsetsEvaluated, true, opts.Parallel)

		slog.Debug("celebrity clique search completed",
			slog.Int("party_size", result.PartySize),
			slog.Int("cardinality", card),
			slog.Int("subsets_evaluated", result.SubsetsEvaluated),
			slog.Duration("duration", result.Duration),
		)
		return result, nil
	}

	duration := time.Since(start)
	setSearchSpanResult(span, int(evaluated.Load()), 0, false)
	span.SetStatus(codes.Ok, "")
	recordSearchMetrics(ctx, duration, int(evaluated.Load()), false, opts.Parallel)

	slog.Debug("celebrity clique search exhausted",
		slog.Int("party_size", p.Size()),
		slog.Int("subsets_evaluated", int(evaluated.Load())),
		slog.Duration("duration", duration),
	)
	return nil, ErrNoCelebrityClique
}

// findInLevelSequential scans one level in index order.
// Returns the first matching index, or -1.
func findInLevelSequential(ctx context.Context, p *Party, level []Subset, evaluated *atomic.Int64) int {
	for i, subset := range level {
		// Stride the cancellation check; a per-subset check is measurable
		// on million-subset levels.
		if i&1023 == 0 && ctx.Err() != nil {
			return -1
		}
		evaluated.Add(1)
		if IsCelebrityClique(p, subset) {
			return i
		}
	}
	return -1
}

// findInLevelParallel scans one level with a capped worker pool.
//
// Each worker owns a contiguous chunk of the level and stops at its first
// local match; the lowest matching index across workers wins. Uniqueness
// of the celebrity clique means at most one worker can ever match, so the
// first match also cancels the siblings via the group context.
//
// Returns the winning index, or -1.
func findInLevelParallel(ctx context.Context, p *Party, level []Subset, workers int, evaluated *atomic.Int64) int {
	workers = min(workers, len(level))
	chunk := (len(level) + workers - 1) / workers

	// Per-worker local winner; len(level) means no match.
	found := make([]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(level))
		found[w] = len(level)
		if lo >= hi {
			continue
		}

		g.Go(func() error {
			// Panic recovery: a corrupt subset must not take down the
			// process. Treated as no match for this worker.
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					slog.Error("panic in parallel search worker",
						slog.Int("chunk_start", lo),
						slog.Any("panic", r),
						slog.String("stack", string(buf[:n])),
					)
				}
			}()

			for i := lo; i < hi; i++ {
				if i&255 == 0 && gctx.Err() != nil {
					return nil
				}
				evaluated.Add(1)
				if IsCelebrityClique(p, level[i]) {
					found[w] = i
					return errFoundInLevel
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errFoundInLevel) {
		return -1
	}

	winner := len(level)
	for _, f := range found {
		if f < winner {
			winner = f
		}
	}
	if winner == len(level) {
		return -1
	}
	return winner
}
