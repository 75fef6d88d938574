package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const scenarioYAML = `name: todo
sections:
  - id: open
    objects: [write, test, ship]
  - id: done
    objects: []
views:
  - name: sorted
    kind: sort
steps:
  - op: move
    section: 0
    item: 1
    to_section: 1
    to_item: 0
  - op: insert
    section: 0
    item: 0
    objects: [plan]
`

func TestReplay(t *testing.T) {
	tempDir := t.TempDir()
	bin := buildCollistBinary(t, tempDir)

	work := filepath.Join(tempDir, "work", "nested")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "work", "collist.yaml"), []byte(scenarioYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("Text output from discovered file", func(t *testing.T) {
		out := runCmd(t, work, false, bin, "replay", "--verify")
		for _, want := range []string{"scenario todo", "#0 move [0,1] -> [1,0]", `MOVE "test" [0,1] -> [1,0]`, `INSERT "plan" at [0,0]`, "sorted: open[plan ship write] done[test]"} {
			if !strings.Contains(out, want) {
				t.Errorf("output lacks %q:\n%s", want, out)
			}
		}
	})

	t.Run("JSON report to file", func(t *testing.T) {
		target := filepath.Join(tempDir, "report.json")
		runCmd(t, work, false, bin, "replay", "../collist.yaml", "--json", "--out", target)

		data, err := os.ReadFile(target)
		if err != nil {
			t.Fatal(err)
		}
		var report struct {
			Steps []struct {
				Emissions []struct {
					Collection string `json:"collection"`
				} `json:"emissions"`
			} `json:"steps"`
		}
		if err := json.Unmarshal(data, &report); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, data)
		}
		if len(report.Steps) != 2 || len(report.Steps[0].Emissions) != 2 {
			t.Errorf("unexpected report: %s", data)
		}
	})

	t.Run("Failing step", func(t *testing.T) {
		bad := filepath.Join(tempDir, "bad.yaml")
		_ = os.WriteFile(bad, []byte("steps:\n  - op: remove_section\n    section: 3\n"), 0o644)
		runCmd(t, tempDir, true, bin, "replay", bad)
	})

	t.Run("Version", func(t *testing.T) {
		if out := runCmd(t, tempDir, false, bin, "version"); !strings.HasPrefix(out, "collist version ") {
			t.Errorf("unexpected version output %q", out)
		}
	})
}
