package main

import (
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

func zapField(key, value string) zap.Field {
	return zap.String(key, value)
}

// filepathWalkDirs calls add for every directory under root (fsnotify
// watches are non-recursive, so each directory needs its own registration),
// skipping the same build/VCS/venv directories the walker excludes by
// default.
func filepathWalkDirs(root string, add func(string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		switch base {
		case ".git", ".hg", ".svn", "venv", ".venv", "__pycache__", "node_modules",
			"build", "dist", ".mypy_cache", ".pytest_cache", ".ruff_cache", ".tox":
			if path != root {
				return fs.SkipDir
			}
		}
		return add(path)
	})
}
