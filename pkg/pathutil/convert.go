// Package pathutil provides utilities for converting between absolute and
// relative paths.
//
// Architecture Pattern:
// pyaudit's analysis path works in absolute paths internally for consistency
// and to avoid ambiguity across chunk boundaries. User-facing output (JSON
// report, SARIF, text) should use paths relative to the analysis root for
// readability and portability. This package is the conversion layer between
// internal (absolute) and external (relative) representations.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or the path is already
// relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.py", "/home/user/project") → "src/main.py"
//   - ToRelative("/other/location/file.py", "/home/user/project") → "/other/location/file.py" (outside root)
//   - ToRelative("src/main.py", "/home/user/project") → "src/main.py" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToRelativeDefinitions converts the File path carried by every Definition's
// shared FileRef from absolute to relative. Since a FileRef is shared across
// every Definition/Finding produced from one file, the conversion mutates the
// FileRef in place rather than copying per-Definition; callers at a report
// boundary should run this exactly once per FileRef before serialization.
func ToRelativeDefinitions(defs []types.Definition, rootDir string) {
	seen := make(map[*types.FileRef]bool)
	for i := range defs {
		ref := defs[i].File
		if ref == nil || seen[ref] {
			continue
		}
		ref.Path = ToRelative(ref.Path, rootDir)
		seen[ref] = true
	}
}

// ToRelativeFindings converts the File field of each Finding from absolute to
// relative. Findings carry a plain string path rather than a shared FileRef,
// so each is converted independently.
func ToRelativeFindings(findings []types.Finding, rootDir string) []types.Finding {
	if len(findings) == 0 {
		return findings
	}
	converted := make([]types.Finding, len(findings))
	copy(converted, findings)
	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}
	return converted
}

// ToRelativeParseErrors converts the File field of each ParseError from
// absolute to relative.
func ToRelativeParseErrors(errs []types.ParseError, rootDir string) []types.ParseError {
	if len(errs) == 0 {
		return errs
	}
	converted := make([]types.ParseError, len(errs))
	copy(converted, errs)
	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}
	return converted
}

// ToRelativeFileMetrics converts the File field of each FileMetrics entry
// from absolute to relative.
func ToRelativeFileMetrics(metrics []types.FileMetrics, rootDir string) []types.FileMetrics {
	if len(metrics) == 0 {
		return metrics
	}
	converted := make([]types.FileMetrics, len(metrics))
	copy(converted, metrics)
	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}
	return converted
}
