package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilepathWalkDirsVisitsNestedDirsButSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "left_pad"), 0o755))

	var visited []string
	err := filepathWalkDirs(root, func(path string) error {
		rel, _ := filepath.Rel(root, path)
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, visited, ".")
	assert.Contains(t, visited, filepath.Join("pkg"))
	assert.Contains(t, visited, filepath.Join("pkg", "sub"))
	assert.NotContains(t, visited, "node_modules")
	assert.NotContains(t, visited, filepath.Join("node_modules", "left_pad"))
}
