package pyparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x = 1\n"), 0o644))
}

func TestWalkDeterministicOrderAndExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py")
	writeFile(t, root, "a.py")
	writeFile(t, root, "notes.txt")
	writeFile(t, root, "nested/c.py")

	result, err := Walk(WalkOptions{Roots: []string{root}})
	require.NoError(t, err)
	require.Len(t, result.Files, 3)

	for i := 1; i < len(result.Files); i++ {
		require.LessOrEqual(t, result.Files[i-1], result.Files[i], "files must be sorted")
	}
}

func TestWalkExcludesDefaultVenvDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py")
	writeFile(t, root, ".venv/lib/site.py")
	writeFile(t, root, "__pycache__/app.cpython-311.pyc")

	result, err := Walk(WalkOptions{Roots: []string{root}})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, filepath.Join(root, "app.py"), result.Files[0])
}

func TestWalkIncludeOverridesExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "build/generated.py")

	result, err := Walk(WalkOptions{
		Roots:   []string{root},
		Exclude: []string{"build/**"},
		Include: []string{"build/generated.py"},
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
}

func TestWalkAdmitsNotebooksOnlyWhenEnabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "analysis.ipynb")

	result, err := Walk(WalkOptions{Roots: []string{root}})
	require.NoError(t, err)
	require.Empty(t, result.Files)

	result, err = Walk(WalkOptions{Roots: []string{root}, AdmitNotebooks: true})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
}

func TestWalkSingleFileRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "only.py")

	result, err := Walk(WalkOptions{Roots: []string{filepath.Join(root, "only.py")}})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
}

func TestWalkCountsDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/a.py")
	writeFile(t, root, "pkg/sub/b.py")

	result, err := Walk(WalkOptions{Roots: []string{root}})
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.DirectoryCount, 2)
}
