// Package testutils holds fixtures for tests that read blueprints from disk.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// Workspace is a loam repository rooted in a per-test directory.
type Workspace struct {
	Dir  string
	Repo core.Repository
}

// NewWorkspace initializes a loam repository under t.TempDir.
func NewWorkspace(t *testing.T, opts ...loam.Option) *Workspace {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "init workspace repository")

	return &Workspace{Dir: dir, Repo: repo}
}

// Write creates each file relative to the workspace root, with its parent directories.
func (w *Workspace) Write(t *testing.T, files map[string]string) {
	t.Helper()
	WriteFiles(t, w.Dir, files)
}

// WriteFiles creates each file relative to dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
