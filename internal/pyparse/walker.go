// Package pyparse implements the File Walker and Parser
// Façade: enumerating candidate source files and turning one
// file's bytes into a tree-sitter AST plus a LineIndex.
package pyparse

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/pyaudit/internal/config"
	pyerrors "github.com/standardbeagle/pyaudit/internal/errors"
)

// WalkOptions controls the File Walker's admission rules.
type WalkOptions struct {
	// Roots are one or more files or directories to walk.
	Roots []string

	// Exclude are glob patterns (doublestar syntax) matched against the
	// path relative to its root.
	Exclude []string

	// Include force-admits paths that would otherwise be excluded, and
	// overrides the default extension filter.
	Include []string

	// AdmitNotebooks enables emitting .ipynb files alongside .py files.
	AdmitNotebooks bool

	// Gitignore, when non-nil, is consulted after Exclude/Include.
	Gitignore *config.GitignoreParser
}

// WalkResult is the Walker's output: files in deterministic sorted order,
// plus the count of directories visited.
type WalkResult struct {
	Files          []string
	DirectoryCount int
}

// Walk enumerates files under opts.Roots honoring exclude/include roots and
// ignore-file semantics, returning (files, directory_count) with files in
// deterministic (sorted-by-path) order so chunked processing is reproducible.
func Walk(opts WalkOptions) (WalkResult, error) {
	includeGlobs := compileGlobs(opts.Include)
	excludeGlobs := compileGlobs(opts.Exclude)

	seen := make(map[string]bool)
	var files []string
	dirCount := 0

	for _, root := range opts.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return WalkResult{}, pyerrors.NewWalkError("stat", root, err)
		}

		if !info.IsDir() {
			if admitFile(root, root, includeGlobs, excludeGlobs, opts) {
				if !seen[root] {
					seen[root] = true
					files = append(files, root)
				}
			}
			continue
		}

		visitedDirs := make(map[string]bool)
		err = filepath.Walk(root, func(path string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				// Unreadable entries are skipped, not fatal (only
				// unreadable *source* files become parse-error records;
				// directory traversal failures here are quietly skipped).
				return nil
			}

			if fi.IsDir() {
				if path == root {
					return nil
				}
				dirCount++

				real, err := filepath.EvalSymlinks(path)
				if err == nil {
					if visitedDirs[real] {
						return filepath.SkipDir
					}
					visitedDirs[real] = true
				}

				rel := relOrSelf(root, path)
				if isForceIncluded(rel, includeGlobs) {
					return nil
				}
				if isDefaultExcludedDir(rel) || matchesAny(rel+"/", excludeGlobs) || matchesAny(rel, excludeGlobs) {
					return filepath.SkipDir
				}
				if opts.Gitignore != nil && opts.Gitignore.ShouldIgnore(rel, true) && !isForceIncluded(rel, includeGlobs) {
					return filepath.SkipDir
				}
				return nil
			}

			if admitFile(path, root, includeGlobs, excludeGlobs, opts) {
				if !seen[path] {
					seen[path] = true
					files = append(files, path)
				}
			}
			return nil
		})
		if err != nil {
			return WalkResult{}, pyerrors.NewWalkError("walk", root, err)
		}
	}

	sort.Strings(files)
	return WalkResult{Files: files, DirectoryCount: dirCount}, nil
}

func admitFile(path, root string, includeGlobs, excludeGlobs []string, opts WalkOptions) bool {
	rel := relOrSelf(root, path)

	forced := isForceIncluded(rel, includeGlobs)
	if !forced {
		if matchesAny(rel, excludeGlobs) {
			return false
		}
		if opts.Gitignore != nil && opts.Gitignore.ShouldIgnore(rel, false) {
			return false
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".py":
		return true
	case ".ipynb":
		return opts.AdmitNotebooks
	default:
		return forced
	}
}

func isForceIncluded(rel string, includeGlobs []string) bool {
	return matchesAny(rel, includeGlobs)
}

func matchesAny(rel string, globs []string) bool {
	norm := filepath.ToSlash(rel)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, norm); ok {
			return true
		}
		// Also allow bare-name/substring patterns without glob metachars,
		// matching any path component (mirrors gitignore-style authoring).
		if !strings.ContainsAny(g, "*?[") && strings.Contains(norm, g) {
			return true
		}
	}
	return false
}

func compileGlobs(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, filepath.ToSlash(p))
	}
	return out
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// defaultExcludedDirNames mirrors config.defaultExcludeFolders' directory
// components for the fast directory-name check the Walker applies before
// falling back to full glob matching.
var defaultExcludedDirNames = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"venv": true, ".venv": true, "virtualenv": true, "env": true, ".env": true,
	"conda": true, "site-packages": true,
	"__pycache__": true, ".eggs": true, ".pytest_cache": true,
	".mypy_cache": true, ".ruff_cache": true, ".tox": true,
	"build": true, "dist": true,
	"node_modules": true,
	".idea": true, ".vscode": true,
}

func isDefaultExcludedDir(rel string) bool {
	base := filepath.Base(rel)
	if defaultExcludedDirNames[base] {
		return true
	}
	return strings.HasSuffix(base, ".egg-info")
}
