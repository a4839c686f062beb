package taint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

// parseFunc parses src (expected to contain exactly one top-level function
// definition) and returns its params/body nodes ready for AnalyzeFunction.
func parseFunc(t *testing.T, src string) (*pyparse.ParsedFile, *funcEntry) {
	t.Helper()
	pool := pyparse.NewParserPool()
	pf, parseErr := pyparse.ParseSource(pool, "a.py", []byte(src))
	require.NotNil(t, pf)
	if parseErr != nil {
		t.Fatalf("unexpected parse error: %v", parseErr)
	}
	funcs := collectFunctions(pf.Root, pf.Source, "a", nil)
	require.Len(t, funcs, 1, "expected exactly one function in fixture")
	return pf, &funcs[0]
}

func analyze(t *testing.T, src string) ([]Finding, FunctionSummary) {
	t.Helper()
	pf, fn := parseFunc(t, src)
	defer pf.Close()
	a := &Analyzer{
		File: pf.Path,
		Src:  pf.Source,
		Resolve: func(string) (FunctionSummary, bool) {
			return FunctionSummary{}, false
		},
	}
	return a.AnalyzeFunction(fn.qualifiedName, fn.params, fn.body)
}
