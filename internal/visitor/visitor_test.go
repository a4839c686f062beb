package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

func visitSource(t *testing.T, src string) *Result {
	t.Helper()
	pool := pyparse.NewParserPool()
	pf, parseErr := pyparse.ParseSource(pool, "a.py", []byte(src))
	require.NotNil(t, pf)
	if parseErr != nil {
		t.Fatalf("unexpected parse error: %v", parseErr)
	}
	defer pf.Close()
	return Visit(pf, "")
}

func defByName(t *testing.T, r *Result, name string) types.Definition {
	t.Helper()
	for _, d := range r.Definitions {
		if d.SimpleName == name {
			return d
		}
	}
	t.Fatalf("definition %q not found among %d defs", name, len(r.Definitions))
	return types.Definition{}
}

// scenario 1: unused function detection.
func TestUnusedFunctionDetection(t *testing.T) {
	src := "def used(): pass\ndef unused(): pass\nused()\n"
	r := visitSource(t, src)

	used := defByName(t, r, "used")
	unused := defByName(t, r, "unused")

	assert.GreaterOrEqual(t, r.References[used.FullName], 1)
	assert.Equal(t, 0, r.References[unused.FullName])
}

// scenario 2: __all__ preserves exports.
func TestDunderAllPreservesExports(t *testing.T) {
	src := `__all__ = ["exported_func", "ExportedClass"]

def exported_func(): pass
class ExportedClass: pass
def not_exported_func(): pass
class NotExportedClass: pass
`
	r := visitSource(t, src)

	exportedFn := defByName(t, r, "exported_func")
	exportedCls := defByName(t, r, "ExportedClass")
	notExportedFn := defByName(t, r, "not_exported_func")
	notExportedCls := defByName(t, r, "NotExportedClass")

	assert.GreaterOrEqual(t, r.References[exportedFn.FullName], 1)
	assert.GreaterOrEqual(t, r.References[exportedCls.FullName], 1)
	assert.Equal(t, 0, r.References[notExportedFn.FullName])
	assert.Equal(t, 0, r.References[notExportedCls.FullName])
}

// scenario 3: TYPE_CHECKING import precision, string-annotation use.
func TestTypeCheckingImportPrecision(t *testing.T) {
	src := `from typing import TYPE_CHECKING
if TYPE_CHECKING:
    from typing import List, Dict
import json

def f(x: "List[Dict]"):
    pass
`
	r := visitSource(t, src)

	list := defByName(t, r, "List")
	dict := defByName(t, r, "Dict")
	jsonImport := defByName(t, r, "json")

	assert.True(t, list.IsTypeChecking)
	assert.True(t, dict.IsTypeChecking)
	assert.GreaterOrEqual(t, r.References[list.FullName], 1)
	assert.GreaterOrEqual(t, r.References[dict.FullName], 1)
	assert.Equal(t, 0, r.References[jsonImport.FullName])
}

// scenario 4: a closure returned from its enclosing function is
// not flagged unused even though it is never called within the file.
func TestReturnedClosureIsUsed(t *testing.T) {
	src := "def outer():\n    def inner():\n        return 42\n    return inner\n"
	r := visitSource(t, src)

	inner := defByName(t, r, "inner")
	assert.GreaterOrEqual(t, r.References[inner.FullName], 1)
	assert.True(t, inner.IsCaptured)
}

func TestEscapeForcesImportReferences(t *testing.T) {
	src := "import os\nimport sys\neval(\"os.getcwd()\")\n"
	r := visitSource(t, src)

	require.True(t, r.HasEscape)
	osImport := defByName(t, r, "os")
	sysImport := defByName(t, r, "sys")
	assert.GreaterOrEqual(t, r.References[osImport.FullName], 1)
	assert.GreaterOrEqual(t, r.References[sysImport.FullName], 1)
}

func TestWildcardImportIsEscape(t *testing.T) {
	src := "from os import *\n"
	r := visitSource(t, src)
	assert.True(t, r.HasEscape)
}

func TestRawMetricsCountsBlankAndComment(t *testing.T) {
	src := "x = 1\n\n# a comment\ny = 2\n"
	r := visitSource(t, src)
	assert.Equal(t, 4, r.Raw.LOC)
	assert.Equal(t, 1, r.Raw.Blank)
	assert.Equal(t, 1, r.Raw.Comment)
}

func TestLCOM4CohesiveClass(t *testing.T) {
	src := `class Cohesive:
    def __init__(self):
        self.value = 0
    def bump(self):
        self.value += 1
    def read(self):
        return self.value
`
	r := visitSource(t, src)
	cls := defByName(t, r, "Cohesive")
	assert.Equal(t, 1, r.LCOM4[cls.FullName])
}

func TestLCOM4SplitClass(t *testing.T) {
	src := `class Split:
    def set_a(self):
        self.a = 1
    def get_a(self):
        return self.a
    def set_b(self):
        self.b = 1
    def get_b(self):
        return self.b
`
	r := visitSource(t, src)
	cls := defByName(t, r, "Split")
	assert.Equal(t, 2, r.LCOM4[cls.FullName])
}

func TestFunctionComplexityCountsBranches(t *testing.T) {
	src := `def f(x):
    if x > 0:
        if x > 10:
            return 1
    elif x < 0:
        return -1
    return 0
`
	r := visitSource(t, src)
	require.Len(t, r.Functions, 1)
	fm := r.Functions[0]
	assert.GreaterOrEqual(t, fm.CyclomaticComplexity, 3)
	assert.GreaterOrEqual(t, fm.CognitiveComplexity, 1)
}

func TestFunctionMaintainabilityIndexIsPopulated(t *testing.T) {
	src := `def f(x):
    if x > 0:
        return x + 1
    return x - 1
`
	r := visitSource(t, src)
	require.Len(t, r.Functions, 1)
	fm := r.Functions[0]
	assert.Greater(t, fm.Halstead.TotalN1, 0)
	assert.Greater(t, fm.Halstead.TotalN2, 0)
	assert.Greater(t, fm.MaintainabilityIndex, 0.0)
	assert.LessOrEqual(t, fm.MaintainabilityIndex, 100.0)
	want := types.MaintainabilityIndex(fm.Halstead.Derive().Volume, fm.CyclomaticComplexity, fm.Lines)
	assert.InDelta(t, want, fm.MaintainabilityIndex, 0.0001)
}

func TestTrivialFunctionHasHighMaintainabilityIndex(t *testing.T) {
	src := `def noop():
    pass
`
	r := visitSource(t, src)
	require.Len(t, r.Functions, 1)
	assert.Greater(t, r.Functions[0].MaintainabilityIndex, 80.0)
}
