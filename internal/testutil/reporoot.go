// Package testutil provides shared test helpers for termtodo.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// FindRepoRoot walks up from the current working directory to find
// the repository root (the directory containing go.mod).
func FindRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repository root (no go.mod found)")
		}
		dir = parent
	}
}

// BuildBinary compiles the command under cmd/<name> into a temp directory
// and returns the binary path. ldflags are passed through when non-empty.
func BuildBinary(t *testing.T, name, ldflags string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), name)
	args := []string{"build", "-o", bin}
	if ldflags != "" {
		args = append(args, "-ldflags", ldflags)
	}
	cmd := exec.Command("go", append(args, ".")...)
	cmd.Dir = filepath.Join(FindRepoRoot(t), "cmd", name)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building %s: %v\n%s", name, err, out)
	}
	return bin
}
