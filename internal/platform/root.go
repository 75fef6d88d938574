package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ScenarioFiles are the file names FindScenario looks for, in order of preference.
var ScenarioFiles = []string{"collist.yaml", "collist.yml", ".collist.yaml"}

// FindScenario looks upwards from startDir for a scenario file and returns its
// absolute path.
func FindScenario(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range ScenarioFiles {
			if hasFile(dir, name) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no scenario file found from %s", abs)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
