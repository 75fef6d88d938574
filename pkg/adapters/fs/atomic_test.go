package fs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFile(t *testing.T) {
	t.Run("Creates and overwrites", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "report.json")

		for _, content := range []string{"first", "second"} {
			if err := WriteFile(filename, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			got, err := os.ReadFile(filename)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if string(got) != content {
				t.Errorf("content = %q, want %q", got, content)
			}
		}
	})

	t.Run("Leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		if err := WriteFile(filepath.Join(dir, "out.txt"), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if isTempFile(e.Name()) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("Respects permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not meaningful on windows")
		}
		filename := filepath.Join(t.TempDir(), "secret.txt")
		if err := WriteFile(filename, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(filename)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("Missing directory", func(t *testing.T) {
		if err := WriteFile(filepath.Join(t.TempDir(), "nope", "x"), nil, 0o644); err == nil {
			t.Error("expected an error")
		}
	})
}
