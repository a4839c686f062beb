package aggregator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/config"
)

func writeProjectFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestRunAnalyzesProjectAndFindsUnusedFunction(t *testing.T) {
	root := writeProjectFiles(t, map[string]string{
		"main.py": "def used():\n    pass\n\ndef unused():\n    pass\n\nused()\n",
	})

	cfg := config.Default(root)
	cfg.Performance.ParallelFileWorkers = 2

	result, err := Run([]string{root}, cfg)
	require.NoError(t, err)
	require.NotNil(t, result)

	var names []string
	for _, d := range result.UnusedFunctions {
		names = append(names, d.SimpleName)
	}
	assert.Contains(t, names, "unused")
	assert.NotContains(t, names, "used")
	assert.Equal(t, 1, result.AnalysisSummary.TotalFiles)
}

func TestRunFlagsDangerousCall(t *testing.T) {
	root := writeProjectFiles(t, map[string]string{
		"app.py": "def run(cmd):\n    os.system(cmd)\n    run('ls')\n",
	})

	cfg := config.Default(root)
	cfg.Performance.ParallelFileWorkers = 1

	result, err := Run([]string{root}, cfg)
	require.NoError(t, err)

	var ruleIDs []string
	for _, f := range result.Danger {
		ruleIDs = append(ruleIDs, f.RuleID)
	}
	assert.Contains(t, ruleIDs, "DANGER-OS-SYSTEM")
}

func TestRunAcrossMultipleFilesWithBoundedConcurrency(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 5; i++ {
		name := filepath.Join("pkg", "m"+string(rune('a'+i))+".py")
		files[name] = "def f():\n    pass\n\nf()\n"
	}
	root := writeProjectFiles(t, files)

	cfg := config.Default(root)
	cfg.Performance.ParallelFileWorkers = 2

	result, err := Run([]string{root}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, result.AnalysisSummary.TotalFiles)
}
