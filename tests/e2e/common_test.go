package e2e

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildCollistBinary builds the collist binary in dir and returns its path.
func buildCollistBinary(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "collist.exe")
	// Tests run from tests/e2e.
	buildCmd := exec.Command("go", "build", "-o", bin, "../../cmd/collist")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build collist: %v\n%s", err, string(out))
	}
	return bin
}

// runCmd runs name in dir and returns its standard output. It fails the test unless the
// exit status matches wantErr.
func runCmd(t *testing.T, dir string, wantErr bool, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if (err != nil) != wantErr {
		t.Fatalf("Command %s %v in %s: err = %v\nstdout:\n%s\nstderr:\n%s", name, args, dir, err, stdout.String(), stderr.String())
	}
	return stdout.String()
}
