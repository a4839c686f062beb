package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/clones"
	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/taint"
	"github.com/standardbeagle/pyaudit/internal/types"
	"github.com/standardbeagle/pyaudit/internal/visitor"
)

func visitFile(t *testing.T, path, src string) FileResult {
	t.Helper()
	pool := pyparse.NewParserPool()
	pf, parseErr := pyparse.ParseSource(pool, path, []byte(src))
	require.NotNil(t, pf)
	if parseErr != nil {
		t.Fatalf("unexpected parse error in %s: %v", path, parseErr)
	}
	defer pf.Close()
	return FileResult{
		Path:   path,
		Source: pf.Source,
		Visit:  visitor.Visit(pf, ""),
	}
}

func defaultTestConfig() *config.Config {
	cfg := config.Default("")
	cfg.ConfidenceThreshold = 0
	return cfg
}

func findDefinition(defs []types.Definition, simpleName string) (types.Definition, bool) {
	for _, d := range defs {
		if d.SimpleName == simpleName {
			return d, true
		}
	}
	return types.Definition{}, false
}

func TestAggregateReconcilesCrossFileReference(t *testing.T) {
	fileA := visitFile(t, "a.py", "def helper():\n    pass\n")
	fileB := visitFile(t, "b.py", "def caller():\n    helper()\n")

	result := Aggregate(
		[]FileResult{fileA, fileB},
		pyparse.WalkResult{Files: []string{"a.py", "b.py"}},
		defaultTestConfig(),
		clones.Result{}, nil, nil, nil,
	)

	_, stillUnused := findDefinition(result.UnusedFunctions, "helper")
	assert.False(t, stillUnused, "helper is called from b.py and must not be reported unused after cross-file reconciliation")
}

func TestAggregateReportsTrulyUnusedFunction(t *testing.T) {
	fileA := visitFile(t, "a.py", "def never_called():\n    pass\n")

	result := Aggregate(
		[]FileResult{fileA},
		pyparse.WalkResult{Files: []string{"a.py"}},
		defaultTestConfig(),
		clones.Result{}, nil, nil, nil,
	)

	_, unused := findDefinition(result.UnusedFunctions, "never_called")
	assert.True(t, unused)
}

func TestAggregateLinksMethodsOfUnusedClass(t *testing.T) {
	fileA := visitFile(t, "a.py", `
class Widget:
    def render(self):
        pass

    def visit_child(self):
        pass
`)

	result := Aggregate(
		[]FileResult{fileA},
		pyparse.WalkResult{Files: []string{"a.py"}},
		defaultTestConfig(),
		clones.Result{}, nil, nil, nil,
	)

	_, classUnused := findDefinition(result.UnusedClasses, "Widget")
	require.True(t, classUnused)

	_, renderUnused := findDefinition(result.UnusedMethods, "render")
	assert.True(t, renderUnused, "render should join unused methods because its owning class Widget is never used")

	_, visitChildUnused := findDefinition(result.UnusedMethods, "visit_child")
	assert.False(t, visitChildUnused, "visit_-prefixed methods are exempt as visitor-pattern dispatch targets")
}

func TestAggregateAttachesCloneAndTaintFindings(t *testing.T) {
	fileA := visitFile(t, "a.py", "def f():\n    pass\n")

	cloneFinding := types.CloneFinding{Message: "duplicate code"}
	taintFinding := taint.Finding{SinkName: "os.system", VulnType: types.VulnCommandInjection}

	result := Aggregate(
		[]FileResult{fileA},
		pyparse.WalkResult{Files: []string{"a.py"}},
		defaultTestConfig(),
		clones.Result{Findings: []types.CloneFinding{cloneFinding}},
		[]taint.Finding{taintFinding},
		nil, nil,
	)

	require.Len(t, result.Clones, 1)
	assert.Equal(t, "duplicate code", result.Clones[0].Message)

	require.Len(t, result.TaintFindings, 1)
	assert.Equal(t, types.VulnCommandInjection, result.TaintFindings[0].VulnType)

	assert.Equal(t, 1, result.AnalysisSummary.CountsByCategory["clones"])
	assert.Equal(t, 1, result.AnalysisSummary.CountsByCategory["taint"])
}

func TestAggregateSummaryCountsTotalFiles(t *testing.T) {
	fileA := visitFile(t, "a.py", "def f():\n    pass\nf()\n")

	result := Aggregate(
		[]FileResult{fileA},
		pyparse.WalkResult{Files: []string{"a.py"}, DirectoryCount: 1},
		defaultTestConfig(),
		clones.Result{}, nil, nil, nil,
	)

	assert.Equal(t, 1, result.AnalysisSummary.TotalFiles)
	assert.Equal(t, 1, result.AnalysisSummary.TotalDirectories)
}
