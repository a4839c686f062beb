package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/types"
)

func TestValidatePathsRejectsMissingPath(t *testing.T) {
	dir := t.TempDir()
	err := validatePaths([]string{dir, filepath.Join(dir, "does-not-exist")})
	require.Error(t, err)

	ce, ok := err.(*cliExitError)
	require.True(t, ok)
	assert.Equal(t, exitPathOrGate, ce.code)
}

func TestValidatePathsAcceptsExistingPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("pass\n"), 0o644))

	err := validatePaths([]string{dir, filepath.Join(dir, "a.py")})
	assert.NoError(t, err)
}

func TestLoadConfigFallsBackToDefaultsWithoutKDL(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.ConfidenceThreshold)
}

func TestNewExitErrorCarriesCodeAndMessage(t *testing.T) {
	err := newExitError(exitUnexpected, "boom: %s", "reason")
	assert.Equal(t, exitUnexpected, err.code)
	assert.Equal(t, "boom: reason", err.Error())
}

func TestEnforceCIGateFailsOnUnusedPercentage(t *testing.T) {
	cfg := testConfigForCI()
	cfg.CI.FailThresholdPercent = 10

	result := &types.AnalysisResult{
		UnusedFunctions: []types.Definition{{}, {}},
		AnalysisSummary: types.AnalysisSummary{TotalDefinitions: 10},
	}

	err := enforceCIGate(cfg, result)
	require.Error(t, err)
	ce, ok := err.(*cliExitError)
	require.True(t, ok)
	assert.Equal(t, exitPathOrGate, ce.code)
}

func TestEnforceCIGatePassesUnderThreshold(t *testing.T) {
	cfg := testConfigForCI()
	cfg.CI.FailThresholdPercent = 50

	result := &types.AnalysisResult{
		UnusedFunctions: []types.Definition{{}},
		AnalysisSummary: types.AnalysisSummary{TotalDefinitions: 10},
	}

	assert.NoError(t, enforceCIGate(cfg, result))
}

func TestEnforceCIGateFailsOnComplexityCeiling(t *testing.T) {
	cfg := testConfigForCI()
	cfg.CI.PerBlockComplexityCeiling = 5

	result := &types.AnalysisResult{
		FileMetrics: []types.FileMetrics{{File: "big.py", AverageComplexity: 9.5}},
	}

	err := enforceCIGate(cfg, result)
	require.Error(t, err)
	ce, ok := err.(*cliExitError)
	require.True(t, ok)
	assert.Equal(t, exitPathOrGate, ce.code)
}

func TestEnforceCIGateDisabledWhenZero(t *testing.T) {
	cfg := testConfigForCI()
	result := &types.AnalysisResult{
		UnusedFunctions: []types.Definition{{}, {}, {}},
		AnalysisSummary: types.AnalysisSummary{TotalDefinitions: 3},
		FileMetrics:     []types.FileMetrics{{File: "big.py", AverageComplexity: 999}},
	}
	assert.NoError(t, enforceCIGate(cfg, result))
}

func testConfigForCI() *config.Config {
	cfg := config.Default("")
	cfg.CI.FailThresholdPercent = 0
	cfg.CI.PerBlockComplexityCeiling = 0
	return cfg
}
