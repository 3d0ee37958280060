package test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestV1CliqueContract builds the CLI and pins the behavior the v1.0.0
// release shipped with: the demo roster answer, the exit code contract,
// and the JSON field names scripts depend on.
func TestV1CliqueContract(t *testing.T) {
	// 1. Build the latest CLI binary
	// We build it to a temp location to avoid messing with the user's install
	tmpBin := "./gala_test_bin"
	buildCmd := exec.Command("go", "build", "-o", tmpBin, "../../cmd/gala")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, string(output))
	}
	defer os.Remove(tmpBin) // Cleanup binary

	// 2. Pin the config so the binary never touches ~/.gala
	configPath := filepath.Join(t.TempDir(), "gala.yaml")
	if err := os.WriteFile(configPath, []byte("meta:\n  version: \"1.0.0\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	env := append(os.Environ(),
		"GALA_CONFIG="+configPath,
		"GALA_DATA_DIR="+t.TempDir(),
		"GALA_PERSONALITY=machine",
	)

	// 3. The demo roster answer is frozen: guests 1, 2, and 3
	t.Log("Checking the demo roster answer...")
	findCmd := exec.Command(tmpBin, "find", "../../examples/party.yaml", "--json")
	findCmd.Env = env
	out, err := findCmd.Output()
	if err != nil {
		t.Fatalf("find failed: %v\nOutput: %s", err, out)
	}

	var verdict map[string]interface{}
	if err := json.Unmarshal(out, &verdict); err != nil {
		t.Fatalf("find --json printed invalid JSON: %v\nOutput: %s", err, out)
	}

	// Scripts parse these exact keys; renaming any of them is a breaking
	// change and needs a major version bump.
	for _, key := range []string{"party", "found", "clique_ids", "party_size", "subsets_evaluated", "parallel", "elapsed_ms", "digest"} {
		if _, ok := verdict[key]; !ok {
			t.Errorf("FAIL: JSON key %q missing from the find output", key)
		}
	}
	if found, _ := verdict["found"].(bool); !found {
		t.Fatalf("FAIL: demo roster verdict changed: %s", out)
	}
	ids, _ := verdict["clique_ids"].([]interface{})
	if len(ids) != 3 || ids[0] != float64(1) || ids[1] != float64(2) || ids[2] != float64(3) {
		t.Errorf("FAIL: demo clique changed: got %v, want [1 2 3]", ids)
	}

	// 4. Absence of a clique exits zero...
	t.Log("Checking the exit code contract...")
	emptyCmd := exec.Command(tmpBin, "find", "../../examples/strangers.yaml", "--json")
	emptyCmd.Env = env
	if out, err := emptyCmd.Output(); err != nil {
		t.Errorf("FAIL: a cliqueless party must exit zero: %v\nOutput: %s", err, out)
	}

	// ...unless --fail-if-empty asked for exit code 2
	failCmd := exec.Command(tmpBin, "find", "../../examples/strangers.yaml", "--fail-if-empty")
	failCmd.Env = env
	_, err = failCmd.Output()
	exitErr, ok := err.(*exec.ExitError)
	if !ok || exitErr.ExitCode() != 2 {
		t.Errorf("FAIL: --fail-if-empty must exit 2, got %v", err)
	}

	// 5. Both graph syntaxes still render
	t.Log("Checking the graph formats...")
	for format, marker := range map[string]string{
		"dot":     "digraph demo {",
		"mermaid": "flowchart TB",
	} {
		graphCmd := exec.Command(tmpBin, "graph", "../../examples/party.yaml", "--format", format)
		graphCmd.Env = env
		out, err := graphCmd.Output()
		if err != nil {
			t.Errorf("FAIL: graph --format %s failed: %v", format, err)
			continue
		}
		if !strings.Contains(string(out), marker) {
			t.Errorf("FAIL: graph --format %s lost its %q header:\n%s", format, marker, out)
		}
	}
}
