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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for clique search operations.
var (
	tracer = otel.Tracer("gala.clique")
	meter  = otel.Meter("gala.clique")
)

// Metrics for search operations.
var (
	searchLatency    metric.Float64Histogram
	searchTotal      metric.Int64Counter
	subsetsEvaluated metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		searchLatency, err = meter.Float64Histogram(
			"clique_search_duration_seconds",
			metric.WithDescription("Duration of celebrity clique searches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchTotal, err = meter.Int64Counter(
			"clique_search_total",
			metric.WithDescription("Total number of celebrity clique searches"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		subsetsEvaluated, err = meter.Int64Histogram(
			"clique_subsets_evaluated",
			metric.WithDescription("Number of subsets evaluated per search"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordSearchMetrics records metrics for one search.
func recordSearchMetrics(ctx context.Context, duration time.Duration, evaluated int, found, parallel bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("found", found),
		attribute.Bool("parallel", parallel),
	)

	searchLatency.Record(ctx, duration.Seconds(), attrs)
	searchTotal.Add(ctx, 1, attrs)
	subsetsEvaluated.Record(ctx, int64(evaluated))
}

// startSearchSpan creates a span for a search operation.
func startSearchSpan(ctx context.Context, partySize int, parallel bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "clique.FindCelebrityClique",
		trace.WithAttributes(
			attribute.Int("party.size", partySize),
			attribute.Bool("search.parallel", parallel),
		),
	)
}

// setSearchSpanResult sets the outcome attributes on a search span.
func setSearchSpanResult(span trace.Span, evaluated, cardinality int, found bool) {
	span.SetAttributes(
		attribute.Int("search.subsets_evaluated", evaluated),
		attribute.Int("search.clique_cardinality", cardinality),
		attribute.Bool("search.found", found),
	)
}
