package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/pyaudit/internal/types"
)

func TestScorePragmaZerosConfidence(t *testing.T) {
	src := NewSourceLines(map[string][]byte{
		"a.py": []byte("def f():  # pragma: no dead-code\n    pass\n"),
	})
	defs := []types.Definition{{
		FullName: "a.f", SimpleName: "f", DefType: types.DefFunction,
		File: &types.FileRef{Path: "a.py"}, Line: 1, Confidence: 100,
	}}
	Score(defs, src, Options{})
	assert.Equal(t, 0, defs[0].Confidence)
}

func TestScoreDunderPenalty(t *testing.T) {
	src := NewSourceLines(map[string][]byte{"a.py": []byte("class C:\n    def __init__(self): pass\n")})
	defs := []types.Definition{{
		FullName: "a.C.__init__", SimpleName: "__init__", DefType: types.DefMethod,
		File: &types.FileRef{Path: "a.py"}, Line: 2, Confidence: 100,
	}}
	Score(defs, src, Options{})
	assert.Equal(t, 0, defs[0].Confidence)
}

func TestScoreFrameworkManagedCapsAt40(t *testing.T) {
	src := NewSourceLines(map[string][]byte{"a.py": []byte("@app.route('/x')\ndef handler(): pass\n")})
	defs := []types.Definition{{
		FullName: "a.handler", SimpleName: "handler", DefType: types.DefFunction,
		File: &types.FileRef{Path: "a.py"}, Line: 2, Confidence: 100,
		IsFrameworkManaged: true,
	}}
	Score(defs, src, Options{})
	assert.Equal(t, 40, defs[0].Confidence)
}

func TestScoreUnderscorePrefixPenalty(t *testing.T) {
	src := NewSourceLines(map[string][]byte{"a.py": []byte("def _helper(): pass\n")})
	defs := []types.Definition{{
		FullName: "a._helper", SimpleName: "_helper", DefType: types.DefFunction,
		File: &types.FileRef{Path: "a.py"}, Line: 1, Confidence: 100,
	}}
	Score(defs, src, Options{})
	assert.Equal(t, 20, defs[0].Confidence)
}

func TestScoreSaturatesAtZero(t *testing.T) {
	src := NewSourceLines(map[string][]byte{"a.py": []byte("class BaseHandler:\n    def _helper(self): pass\n")})
	defs := []types.Definition{{
		FullName: "a.BaseHandler._helper", SimpleName: "_helper", DefType: types.DefMethod,
		File: &types.FileRef{Path: "a.py"}, Line: 2, Confidence: 100,
	}}
	Score(defs, src, Options{})
	assert.Equal(t, 0, defs[0].Confidence)
}

func TestScoreTypeCheckingWithReferencesPenalized(t *testing.T) {
	src := NewSourceLines(map[string][]byte{"a.py": []byte("from typing import List\n")})
	defs := []types.Definition{{
		FullName: "a.List", SimpleName: "List", DefType: types.DefImport,
		File: &types.FileRef{Path: "a.py"}, Line: 1, Confidence: 100,
		IsTypeChecking: true, References: 2,
	}}
	Score(defs, src, Options{})
	assert.Equal(t, 0, defs[0].Confidence)
}

func TestApplyPostMergeVisitorPatternAddsReference(t *testing.T) {
	defs := []types.Definition{{
		FullName: "a.V.visit_node", SimpleName: "visit_node", DefType: types.DefMethod,
		References: 0,
	}}
	ApplyPostMergeHeuristics(defs)
	assert.Equal(t, 1, defs[0].References)
}

func TestApplyPostMergeFrameworkManagedScopePenalizesMembers(t *testing.T) {
	defs := []types.Definition{
		{FullName: "a.Admin", SimpleName: "Admin", DefType: types.DefClass,
			IsFrameworkManaged: true, Confidence: 100},
		{FullName: "a.Admin.save_model", SimpleName: "save_model", DefType: types.DefMethod,
			Confidence: 100},
	}
	ApplyPostMergeHeuristics(defs)
	assert.Equal(t, 100, defs[0].Confidence, "the decorated scope itself is handled by scoreOne's cap, not this penalty")
	assert.Equal(t, 50, defs[1].Confidence)
}

func TestApplyPostMergeSettingsClassVarZeroed(t *testing.T) {
	defs := []types.Definition{
		{FullName: "a.AppSettings", SimpleName: "AppSettings", DefType: types.DefClass},
		{FullName: "a.AppSettings.DEBUG", SimpleName: "DEBUG", DefType: types.DefVariable,
			IsConstant: true, Confidence: 100},
	}
	ApplyPostMergeHeuristics(defs)
	assert.Equal(t, 0, defs[1].Confidence)
}
