// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// ErrMissingInfluxToken indicates INFLUXDB_URL is set without a token.
var ErrMissingInfluxToken = errors.New("INFLUXDB_TOKEN is required when INFLUXDB_URL is set")

// RunPoint is one search outcome bound for the time series store.
type RunPoint struct {
	PartyName        string
	PartySize        int
	Found            bool
	Cardinality      int
	SubsetsEvaluated int64
	Parallel         bool
	Elapsed          time.Duration
}

// RunSink writes search outcomes to InfluxDB as measurement points.
//
// The sink is best-effort history, not a system of record; the local
// archive in storage/badger holds the authoritative copy.
type RunSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	logger *slog.Logger
}

// NewRunSinkFromEnv builds a sink from INFLUXDB_* environment variables.
//
// Description:
//
//	Reads INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, and INFLUXDB_BUCKET.
//	An unset URL means the operator opted out of time series history, so
//	the sink is nil with no error; callers treat a nil sink as disabled.
//	A reachability probe runs once at construction and only warns on
//	failure, since InfluxDB may come up after we do.
//
// Inputs:
//
//	logger - Logger for sink events. Nil falls back to slog.Default().
//
// Outputs:
//
//	*RunSink - The sink, or nil when INFLUXDB_URL is unset.
//	error - ErrMissingInfluxToken when the URL is set without a token.
func NewRunSinkFromEnv(logger *slog.Logger) (*RunSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		return nil, nil
	}
	token := os.Getenv("INFLUXDB_TOKEN")
	if token == "" {
		return nil, ErrMissingInfluxToken
	}
	org := os.Getenv("INFLUXDB_ORG")
	if org == "" {
		org = "gala"
	}
	bucket := os.Getenv("INFLUXDB_BUCKET")
	if bucket == "" {
		bucket = "clique-runs"
	}

	client := influxdb2.NewClient(url, token)
	health, err := client.Health(context.Background())
	if err != nil || health.Status != "pass" {
		var errMsg string
		if err != nil {
			errMsg = err.Error()
		} else if health != nil && health.Message != nil {
			errMsg = *health.Message
		}
		logger.Warn("InfluxDB not reachable yet, run history writes may fail",
			"url", url, "error", errMsg)
	}

	logger.Info("run history sink enabled",
		"influx_url", url, "influx_org", org, "influx_bucket", bucket)
	return &RunSink{
		client: client,
		write:  client.WriteAPIBlocking(org, bucket),
		logger: logger,
	}, nil
}

// Record writes one search outcome as a "clique_runs" point.
//
// Inputs:
//
//	ctx - Context for the write.
//	pt - The outcome to record.
//
// Outputs:
//
//	error - Non-nil if the write fails. Callers may treat this as
//	advisory since the sink is best-effort.
//
// Thread Safety: Safe for concurrent use.
func (s *RunSink) Record(ctx context.Context, pt RunPoint) error {
	tags := map[string]string{
		"found":    strconv.FormatBool(pt.Found),
		"parallel": strconv.FormatBool(pt.Parallel),
	}
	if pt.PartyName != "" {
		tags["party"] = pt.PartyName
	}

	p := influxdb2.NewPoint(
		"clique_runs",
		tags,
		map[string]interface{}{
			"party_size":        pt.PartySize,
			"cardinality":       pt.Cardinality,
			"subsets_evaluated": pt.SubsetsEvaluated,
			"elapsed_ms":        pt.Elapsed.Milliseconds(),
		},
		time.Now(),
	)
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write run point: %w", err)
	}
	return nil
}

// Close releases the underlying InfluxDB client.
func (s *RunSink) Close() {
	s.client.Close()
}
