package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.hcl"))
	touch(t, filepath.Join(root, "a.hcl"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.hcl"))

	t.Run("directory is walked in lexical order", func(t *testing.T) {
		files, err := FindFiles([]string{root}, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "a.hcl"),
			filepath.Join(root, "b.hcl"),
			filepath.Join(root, "sub", "c.hcl"),
		}, files)
	})

	t.Run("single file and overlap", func(t *testing.T) {
		single := filepath.Join(root, "b.hcl")
		files, err := FindFiles([]string{single, root}, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{
			single,
			filepath.Join(root, "a.hcl"),
			filepath.Join(root, "sub", "c.hcl"),
		}, files)
	})

	t.Run("file with other extension", func(t *testing.T) {
		files, err := FindFiles([]string{filepath.Join(root, "notes.txt")}, ".hcl")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing paths are skipped", func(t *testing.T) {
		files, err := FindFiles([]string{filepath.Join(root, "missing"), filepath.Join(root, "sub")}, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "sub", "c.hcl")}, files)
	})

	t.Run("empty extension panics", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = FindFiles([]string{root}, "") })
	})
}
