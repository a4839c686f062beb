package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKDL_MissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.ConfidenceThreshold)
	assert.True(t, cfg.EnableSecrets)
	assert.Equal(t, 0.8, cfg.Clones.SimilarityThreshold)
}

func TestParseKDL_Overrides(t *testing.T) {
	doc := `
confidence_threshold 80
enable_taint false
include_tests true

quality {
    max_complexity 15
    max_nesting 5
}

secrets {
    entropy_threshold 4.5
    pattern {
        name "internal-token"
        regex "itok_[a-z0-9]{32}"
        severity "HIGH"
    }
}

clones {
    similarity_threshold 0.9
    lsh_bands 10
}
`
	cfg, err := parseKDL(doc)
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.ConfidenceThreshold)
	assert.False(t, cfg.EnableTaint)
	assert.True(t, cfg.IncludeTests)
	assert.Equal(t, 15, cfg.Quality.MaxComplexity)
	assert.Equal(t, 5, cfg.Quality.MaxNesting)
	assert.Equal(t, 4.5, cfg.Secrets.EntropyThreshold)
	require.Len(t, cfg.Secrets.Patterns, 1)
	assert.Equal(t, "internal-token", cfg.Secrets.Patterns[0].Name)
	assert.Equal(t, 0.9, cfg.Clones.SimilarityThreshold)
	assert.Equal(t, 10, cfg.Clones.LSHBands)
}

func TestLoadKDL_ResolvesRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	kdlPath := filepath.Join(dir, ".pyaudit.kdl")
	require.NoError(t, os.WriteFile(kdlPath, []byte(`project { root "." }`), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, filepath.Clean(dir), cfg.Project.Root)
}
