// Package visitor implements the Definition Visitor: a
// single-pass walk over one file's AST that emits definitions, reference
// counts, and per-file raw/Halstead/complexity/LCOM4/MI metrics.
package visitor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// AutoCalledNames is the language-invoked "dunder"/auto-called set the
// Heuristic Scorer checks against ("In the auto-called set").
// Defined here, next to the dunder definitions the Visitor emits, and
// exported for the scorer to consume directly.
var AutoCalledNames = map[string]bool{
	"__init__": true, "__new__": true, "__del__": true,
	"__repr__": true, "__str__": true, "__bytes__": true,
	"__format__": true, "__lt__": true, "__le__": true, "__eq__": true,
	"__ne__": true, "__gt__": true, "__ge__": true, "__hash__": true,
	"__bool__": true, "__getattr__": true, "__getattribute__": true,
	"__setattr__": true, "__delattr__": true, "__dir__": true,
	"__enter__": true, "__exit__": true, "__iter__": true, "__next__": true,
	"__len__": true, "__getitem__": true, "__setitem__": true,
	"__delitem__": true, "__contains__": true, "__call__": true,
	"__add__": true, "__radd__": true, "__post_init__": true,
}

// sanitizerFreeAnnotationScan finds identifier-shaped tokens inside a
// string-valued annotation like "List[Dict]" ("string-valued
// annotations").
var identTokenPattern = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_0123456789"

// Result is the Visitor's per-file output, consumed by the Heuristic Scorer
// and the Aggregator.
type Result struct {
	Definitions []types.Definition
	References  types.RefCountMap
	Raw         types.RawMetrics
	Halstead    types.HalsteadMetrics
	Functions   []types.FunctionMetrics
	LCOM4       map[string]int

	// HasEscape records that this file contains a dynamic construct (eval,
	// exec, getattr with a non-literal second argument, globals(), locals(),
	// or `from X import *`) that defeats static resolution (
	// "What disables precision").
	HasEscape bool
}

// visitor carries the mutable state for one file's single pass.
type visitor struct {
	file   *types.FileRef
	src    []byte
	lines  *pyparse.LineIndex
	scopes *scopeStack

	defs []types.Definition
	refs types.RefCountMap

	hasEscape     bool
	dunderAll     []string
	inInitFile    bool
	typeCheckDepth int

	functions []types.FunctionMetrics
	lcom4     map[string]int
}

// Visit runs the Definition Visitor over a parsed file, returning its
// per-file Result. analysisRoot is used only to compute the module path
// attached to the shared FileRef.
func Visit(pf *pyparse.ParsedFile, analysisRoot string) *Result {
	module := pyparse.ModulePath(analysisRoot, pf.Path)
	ref := &types.FileRef{Path: pf.Path, Module: module}

	v := &visitor{
		file:   ref,
		src:    pf.Source,
		lines:  pf.Lines,
		scopes: newScopeStack(module),
		refs:   make(types.RefCountMap),
		lcom4:  make(map[string]int),
	}
	v.inInitFile = strings.HasSuffix(pf.Path, "__init__.py")

	v.preScanEscapes(pf.Root)
	v.preScanDunderAll(pf.Root)

	for i := uint(0); i < pf.Root.ChildCount(); i++ {
		v.visitStatement(pf.Root.Child(i))
	}

	if v.hasEscape {
		v.forceEscapeReferences()
	}

	raw := computeRawMetrics(pf.Source)
	halstead := computeHalstead(pf.Root, pf.Source)

	return &Result{
		Definitions: v.defs,
		References:  v.refs,
		Raw:         raw,
		Halstead:    halstead,
		Functions:   v.functions,
		LCOM4:       v.lcom4,
		HasEscape:   v.hasEscape,
	}
}

func text(n *sitter.Node, src []byte) string { return pyparse.NodeText(n, src) }

func (v *visitor) addRef(name string) {
	if name == "" {
		return
	}
	v.refs[name]++
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		v.refs[name[dot+1:]]++
	}
}

func (v *visitor) addDef(d types.Definition) {
	d.File = v.file
	if d.Confidence == 0 && d.DefType != types.DefParameter {
		d.Confidence = 100
	}
	if dot := strings.LastIndexByte(d.FullName, '.'); dot >= 0 {
		d.SimpleName = d.FullName[dot+1:]
	} else {
		d.SimpleName = d.FullName
	}
	d.InInit = v.inInitFile
	d.IsTypeChecking = v.typeCheckDepth > 0
	if d.DefType == types.DefImport || d.DefType == types.DefFunction || d.DefType == types.DefClass || d.DefType == types.DefVariable {
		d.IsModuleLevel = v.scopes.depth() == 0
	}
	v.defs = append(v.defs, d)
}

func loc(n *sitter.Node, lines *pyparse.LineIndex) (line, endLine, col int, startByte, endByte uint32) {
	startPos := n.StartPosition()
	endPos := n.EndPosition()
	return int(startPos.Row) + 1, int(endPos.Row) + 1, int(startPos.Column),
		uint32(n.StartByte()), uint32(n.EndByte())
}
