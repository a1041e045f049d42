package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the per-project data directory.
const DataDirName = ".termtodo"

// DiscoverDataDir walks up the directory tree from startDir looking for a
// .termtodo/ directory. Returns the absolute path to it or an error if not found.
func DiscoverDataDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	for {
		candidate := filepath.Join(dir, DataDirName)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("Not a termtodo project (no %s directory found)", DataDirName)
}
