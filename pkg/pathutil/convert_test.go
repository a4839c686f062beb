package pathutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/standardbeagle/pyaudit/internal/types"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "simple relative path",
			absPath:  "/home/user/project/src/main.py",
			rootDir:  "/home/user/project",
			expected: "src/main.py",
		},
		{
			name:     "nested relative path",
			absPath:  "/home/user/project/internal/core/scan.py",
			rootDir:  "/home/user/project",
			expected: "internal/core/scan.py",
		},
		{
			name:     "root level file",
			absPath:  "/home/user/project/README.md",
			rootDir:  "/home/user/project",
			expected: "README.md",
		},
		{
			name:     "same directory",
			absPath:  "/home/user/project",
			rootDir:  "/home/user/project",
			expected: ".",
		},
		{
			name:     "already relative path",
			absPath:  "src/main.py",
			rootDir:  "/home/user/project",
			expected: "src/main.py",
		},
		{
			name:     "path outside root falls back to absolute",
			absPath:  "/other/location/file.py",
			rootDir:  "/home/user/project",
			expected: "/other/location/file.py",
		},
		{
			name:     "empty root directory",
			absPath:  "/home/user/project/file.py",
			rootDir:  "",
			expected: "/home/user/project/file.py",
		},
		{
			name:     "empty absolute path",
			absPath:  "",
			rootDir:  "/home/user/project",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.absPath, tt.rootDir)
			if runtime.GOOS == "windows" {
				result = filepath.ToSlash(result)
				expected := filepath.ToSlash(tt.expected)
				if result != expected {
					t.Errorf("ToRelative() = %v, want %v", result, expected)
				}
			} else if result != tt.expected {
				t.Errorf("ToRelative() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestToRelativeDefinitionsSharedFileRef(t *testing.T) {
	rootDir := "/home/user/project"
	ref := &types.FileRef{Path: "/home/user/project/src/main.py", Module: "src.main"}

	defs := []types.Definition{
		{FullName: "src.main.used", File: ref},
		{FullName: "src.main.unused", File: ref},
	}

	ToRelativeDefinitions(defs, rootDir)

	if ref.Path != "src/main.py" {
		t.Fatalf("expected shared FileRef converted once, got %q", ref.Path)
	}
	if defs[0].File != defs[1].File {
		t.Fatalf("expected both definitions to keep sharing the same FileRef pointer")
	}
}

func TestToRelativeFindings(t *testing.T) {
	rootDir := "/home/user/project"
	input := []types.Finding{
		{RuleID: "DANGER-EVAL", File: "/home/user/project/src/main.py", Line: 10},
		{RuleID: "QUALITY-COMPLEXITY", File: "/home/user/project/internal/core/scan.py", Line: 42},
	}

	results := ToRelativeFindings(input, rootDir)

	expected := []string{"src/main.py", "internal/core/scan.py"}
	if len(results) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(results))
	}
	for i, r := range results {
		if r.File != expected[i] {
			t.Errorf("result %d: File = %v, want %v", i, r.File, expected[i])
		}
		if r.RuleID != input[i].RuleID || r.Line != input[i].Line {
			t.Errorf("result %d: other fields mutated", i)
		}
	}

	// Original slice must be untouched.
	if input[0].File != "/home/user/project/src/main.py" {
		t.Errorf("ToRelativeFindings mutated its input slice")
	}
}

func TestToRelativeParseErrors(t *testing.T) {
	rootDir := "/home/user/project"
	input := []types.ParseError{
		{File: "/home/user/project/broken.py", Error: "unexpected indent at line 3", Line: 3},
	}

	results := ToRelativeParseErrors(input, rootDir)
	if results[0].File != "broken.py" {
		t.Errorf("File = %v, want broken.py", results[0].File)
	}
	if results[0].Line != 3 {
		t.Errorf("Line changed: got %v", results[0].Line)
	}
}

func TestToRelativeFileMetrics(t *testing.T) {
	rootDir := "/home/user/project"
	input := []types.FileMetrics{
		{File: "/home/user/project/src/main.py", TotalDefinitions: 7},
	}

	results := ToRelativeFileMetrics(input, rootDir)
	if results[0].File != "src/main.py" {
		t.Errorf("File = %v, want src/main.py", results[0].File)
	}
	if results[0].TotalDefinitions != 7 {
		t.Errorf("TotalDefinitions changed: got %v", results[0].TotalDefinitions)
	}
}

func TestToRelativeEmptySlices(t *testing.T) {
	rootDir := "/home/user/project"

	if r := ToRelativeFindings(nil, rootDir); len(r) != 0 {
		t.Errorf("expected empty slice for Findings, got %d elements", len(r))
	}
	if r := ToRelativeParseErrors(nil, rootDir); len(r) != 0 {
		t.Errorf("expected empty slice for ParseErrors, got %d elements", len(r))
	}
	if r := ToRelativeFileMetrics(nil, rootDir); len(r) != 0 {
		t.Errorf("expected empty slice for FileMetrics, got %d elements", len(r))
	}
}
