// Build artifact detection from pyproject.toml / setup.cfg: Python projects
// sometimes configure a non-default build/output directory that should be
// excluded from analysis alongside the built-in exclusion set.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds project-specific build output directories
// declared in pyproject.toml.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector.
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans pyproject.toml and returns glob patterns to
// exclude (e.g. "**/dist-custom/**").
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	pyprojectTOML := filepath.Join(bad.projectRoot, "pyproject.toml")
	data, err := os.ReadFile(pyprojectTOML)
	if err != nil {
		return nil
	}

	var pyproject map[string]interface{}
	if err := toml.Unmarshal(data, &pyproject); err != nil {
		return nil
	}

	var patterns []string

	tool, ok := pyproject["tool"].(map[string]interface{})
	if !ok {
		return nil
	}

	// Poetry: tool.poetry.build.target-dir
	if poetry, ok := tool["poetry"].(map[string]interface{}); ok {
		if build, ok := poetry["build"].(map[string]interface{}); ok {
			if targetDir, ok := build["target-dir"].(string); ok && targetDir != "" {
				patterns = append(patterns, "**/"+targetDir+"/**")
			}
		}
	}

	// Hatch: tool.hatch.build.directory
	if hatch, ok := tool["hatch"].(map[string]interface{}); ok {
		if build, ok := hatch["build"].(map[string]interface{}); ok {
			if dir, ok := build["directory"].(string); ok && dir != "" {
				patterns = append(patterns, "**/"+dir+"/**")
			}
		}
	}

	return patterns
}

// DeduplicatePatterns removes duplicate exclusion patterns while preserving
// first-seen order.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
