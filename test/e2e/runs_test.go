package e2e

import (
	"encoding/json"
	"strings"
	"testing"
)

// runRecord mirrors the archived run JSON.
type runRecord struct {
	ID        string   `json:"id"`
	PartyName string   `json:"party_name"`
	PartySize int      `json:"party_size"`
	Found     bool     `json:"found"`
	CliqueIDs []uint64 `json:"clique_ids"`
}

// runsListOutput mirrors the JSON printed by `gala runs list --json`.
type runsListOutput struct {
	Runs  []runRecord `json:"runs"`
	Count int         `json:"count"`
}

// TestRuns_ArchiveLifecycle walks the whole archive flow across separate
// processes sharing one data directory: store a run, list it, show it,
// clear the archive, list again.
func TestRuns_ArchiveLifecycle(t *testing.T) {
	dataDir := t.TempDir()

	// 1. Archive a run
	findCmd := galaCmd(dataDir, "find", "../../examples/party.yaml", "--json", "--store")
	out, err := findCmd.Output()
	if err != nil {
		t.Fatalf("find --store failed: %v\nOutput: %s", err, out)
	}
	var res findOutput
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatalf("invalid JSON: %v\nOutput: %s", err, out)
	}
	if res.RunID == "" {
		t.Fatal("find --store returned no run_id")
	}

	// 2. List it back
	listCmd := galaCmd(dataDir, "runs", "list", "--json")
	out, err = listCmd.Output()
	if err != nil {
		t.Fatalf("runs list failed: %v\nOutput: %s", err, out)
	}
	var list runsListOutput
	if err := json.Unmarshal(out, &list); err != nil {
		t.Fatalf("invalid JSON: %v\nOutput: %s", err, out)
	}
	if list.Count != 1 || len(list.Runs) != 1 {
		t.Fatalf("expected exactly one archived run, got %+v", list)
	}
	if list.Runs[0].ID != res.RunID {
		t.Errorf("listed run ID %q does not match stored %q", list.Runs[0].ID, res.RunID)
	}
	if list.Runs[0].PartyName != "demo" || !list.Runs[0].Found {
		t.Errorf("unexpected archived run: %+v", list.Runs[0])
	}

	// 3. Show it by ID
	showCmd := galaCmd(dataDir, "runs", "show", res.RunID, "--json")
	out, err = showCmd.Output()
	if err != nil {
		t.Fatalf("runs show failed: %v\nOutput: %s", err, out)
	}
	var rec runRecord
	if err := json.Unmarshal(out, &rec); err != nil {
		t.Fatalf("invalid JSON: %v\nOutput: %s", err, out)
	}
	if rec.ID != res.RunID || len(rec.CliqueIDs) != 3 {
		t.Errorf("unexpected run record: %+v", rec)
	}

	// 4. Clear the archive
	clearCmd := galaCmd(dataDir, "runs", "clear", "--force", "--json")
	out, err = clearCmd.Output()
	if err != nil {
		t.Fatalf("runs clear failed: %v\nOutput: %s", err, out)
	}
	var cleared struct {
		Deleted int `json:"deleted"`
	}
	if err := json.Unmarshal(out, &cleared); err != nil {
		t.Fatalf("invalid JSON: %v\nOutput: %s", err, out)
	}
	if cleared.Deleted != 1 {
		t.Errorf("wrong deletion count: got %d, want 1", cleared.Deleted)
	}

	// 5. The archive is empty again
	out, err = galaCmd(dataDir, "runs", "list", "--json").Output()
	if err != nil {
		t.Fatalf("runs list failed: %v\nOutput: %s", err, out)
	}
	if err := json.Unmarshal(out, &list); err != nil {
		t.Fatalf("invalid JSON: %v\nOutput: %s", err, out)
	}
	if list.Count != 0 {
		t.Errorf("archive should be empty after clear, got %+v", list)
	}
}

// TestRuns_ShowUnknownID checks the lookup error path.
func TestRuns_ShowUnknownID(t *testing.T) {
	cmd := galaCmd(t.TempDir(), "runs", "show", "00000000-0000-0000-0000-000000000000")
	out, err := cmd.CombinedOutput()

	if code := exitCode(err); code != 1 {
		t.Fatalf("wrong exit code: got %d, want 1\nOutput: %s", code, out)
	}
	if !strings.Contains(string(out), "no archived run") {
		t.Errorf("missing error message in output:\n%s", out)
	}
}

// TestRuns_ShowMalformedID checks that junk never reaches the store.
func TestRuns_ShowMalformedID(t *testing.T) {
	cmd := galaCmd(t.TempDir(), "runs", "show", "../../../etc/passwd")
	out, err := cmd.CombinedOutput()

	if code := exitCode(err); code != 1 {
		t.Fatalf("wrong exit code: got %d, want 1\nOutput: %s", code, out)
	}
	if !strings.Contains(string(out), "Invalid run ID") {
		t.Errorf("missing error message in output:\n%s", out)
	}
}

// TestRuns_ClearNeedsForce checks that the destructive path refuses to
// run without explicit confirmation.
func TestRuns_ClearNeedsForce(t *testing.T) {
	dataDir := t.TempDir()

	// Seed one run so a buggy clear would have something to destroy.
	if out, err := galaCmd(dataDir, "find", "../../examples/party.yaml", "--json", "--store").Output(); err != nil {
		t.Fatalf("find --store failed: %v\nOutput: %s", err, out)
	}

	cmd := galaCmd(dataDir, "runs", "clear")
	out, err := cmd.CombinedOutput()

	if code := exitCode(err); code != 1 {
		t.Fatalf("wrong exit code: got %d, want 1\nOutput: %s", code, out)
	}
	if !strings.Contains(string(out), "--force") {
		t.Errorf("refusal should point at --force:\n%s", out)
	}

	// The archived run must still be there.
	listOut, err := galaCmd(dataDir, "runs", "list", "--json").Output()
	if err != nil {
		t.Fatalf("runs list failed: %v\nOutput: %s", err, listOut)
	}
	var list runsListOutput
	if err := json.Unmarshal(listOut, &list); err != nil {
		t.Fatalf("invalid JSON: %v\nOutput: %s", err, listOut)
	}
	if list.Count != 1 {
		t.Errorf("refused clear must not delete runs, got %+v", list)
	}
}
