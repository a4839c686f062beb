package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStarterKDLCreatesFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteStarterKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".pyaudit.kdl"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "confidence_threshold 60")
}

func TestWriteStarterKDLRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, ".pyaudit.kdl")
	require.NoError(t, os.WriteFile(existing, []byte("// custom\n"), 0o644))

	_, err := WriteStarterKDL(dir)
	require.Error(t, err)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "// custom\n", string(content))
}
