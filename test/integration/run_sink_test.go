// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Integration test for the InfluxDB run history sink
//
// Requires a live InfluxDB. Point INFLUXDB_URL and INFLUXDB_TOKEN at it
// and set RUN_INTEGRATION_TESTS=1.

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/gala/services/party/telemetry"
)

// TestRunSink_WritesSearchHistory records a run through the sink and
// reads the point back out of InfluxDB.
func TestRunSink_WritesSearchHistory(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Set RUN_INTEGRATION_TESTS=1 to run this test")
	}
	if os.Getenv("INFLUXDB_URL") == "" {
		t.Skip("Set INFLUXDB_URL (and INFLUXDB_TOKEN) to run this test")
	}

	ctx := context.Background()

	sink, err := telemetry.NewRunSinkFromEnv(nil)
	require.NoError(t, err)
	require.NotNil(t, sink, "INFLUXDB_URL is set, the sink must be enabled")
	defer sink.Close()

	// Tag the point with a unique party name so reruns don't collide.
	partyName := fmt.Sprintf("sink-test-%d", time.Now().UnixNano())

	t.Logf("Recording a run for party %q...", partyName)
	err = sink.Record(ctx, telemetry.RunPoint{
		PartyName:        partyName,
		PartySize:        7,
		Found:            true,
		Cardinality:      3,
		SubsetsEvaluated: 64,
		Parallel:         false,
		Elapsed:          12 * time.Millisecond,
	})
	require.NoError(t, err)

	// Query the point back with a raw client.
	t.Log("Querying the point back...")
	client := influxdb2.NewClient(os.Getenv("INFLUXDB_URL"), os.Getenv("INFLUXDB_TOKEN"))
	defer client.Close()

	queryAPI := client.QueryAPI(getEnv("INFLUXDB_ORG", "gala"))
	flux := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -15m)
		  |> filter(fn: (r) => r["_measurement"] == "clique_runs")
		  |> filter(fn: (r) => r["party"] == "%s")
		  |> filter(fn: (r) => r["_field"] == "cardinality")
	`, getEnv("INFLUXDB_BUCKET", "clique-runs"), partyName)

	result, err := queryAPI.Query(ctx, flux)
	require.NoError(t, err)

	rows := 0
	for result.Next() {
		rows++
		record := result.Record()
		assert.Equal(t, "true", record.ValueByKey("found"))
		assert.EqualValues(t, 3, record.Value())
	}
	require.NoError(t, result.Err())
	assert.Equal(t, 1, rows, "exactly one cardinality point for this party")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
