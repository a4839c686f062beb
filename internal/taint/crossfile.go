package taint

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

// importKey is (owning module, local alias).
type importKey struct {
	module string
	alias  string
}

// importTarget is the module/name an alias actually resolves to.
type importTarget struct {
	module string
	name   string
}

// CrossFileAnalyzer tracks import bindings and per-module function
// summaries across a whole project, grounded on
// cytoscnpy/src/taint/crossfile.rs's CrossFileAnalyzer. Unlike the Rust
// original (one SummaryDatabase per module), this keeps a single shared
// database keyed by "module.function" — requires flows that
// cross file boundaries to resolve to one finding set, which a per-module
// summary split would only complicate.
type CrossFileAnalyzer struct {
	Summaries *SummaryDatabase
	imports   map[importKey]importTarget
	findings  map[string][]Finding // keyed by file path
}

// NewCrossFileAnalyzer returns an analyzer seeded with builtin summaries.
func NewCrossFileAnalyzer() *CrossFileAnalyzer {
	return &CrossFileAnalyzer{
		Summaries: NewSummaryDatabase(),
		imports:   make(map[importKey]importTarget),
		findings:  make(map[string][]Finding),
	}
}

// RegisterImport records that, within owningModule, the local name alias
// refers to actualModule.actualName.
func (c *CrossFileAnalyzer) RegisterImport(owningModule, alias, actualModule, actualName string) {
	c.imports[importKey{module: owningModule, alias: alias}] = importTarget{module: actualModule, name: actualName}
}

// ResolveImport returns the module/name an alias used inside owningModule
// actually refers to.
func (c *CrossFileAnalyzer) ResolveImport(owningModule, alias string) (string, string, bool) {
	t, ok := c.imports[importKey{module: owningModule, alias: alias}]
	return t.module, t.name, ok
}

// ExtractImports walks a parsed module's top-level import statements and
// registers every binding, grounded on crossfile.rs's extract_imports.
func (c *CrossFileAnalyzer) ExtractImports(modulePath string, root *sitter.Node, src []byte) {
	if root == nil {
		return
	}
	for i := uint(0); i < root.ChildCount(); i++ {
		c.extractImportStmt(modulePath, root.Child(i), src)
	}
}

func (c *CrossFileAnalyzer) extractImportStmt(modulePath string, n *sitter.Node, src []byte) {
	switch n.Kind() {
	case "import_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			ch := n.Child(i)
			switch ch.Kind() {
			case "dotted_name", "identifier":
				name := pyparse.NodeText(ch, src)
				c.RegisterImport(modulePath, name, name, name)
			case "aliased_import":
				name := pyparse.NodeText(ch.ChildByFieldName("name"), src)
				alias := pyparse.NodeText(ch.ChildByFieldName("alias"), src)
				c.RegisterImport(modulePath, alias, name, name)
			}
		}

	case "import_from_statement":
		var fromModule string
		for i := uint(0); i < n.ChildCount(); i++ {
			ch := n.Child(i)
			switch ch.Kind() {
			case "dotted_name":
				if fromModule == "" {
					fromModule = pyparse.NodeText(ch, src)
				} else {
					name := pyparse.NodeText(ch, src)
					c.RegisterImport(modulePath, name, fromModule, name)
				}
			case "relative_import":
				fromModule = pyparse.NodeText(ch, src)
			case "aliased_import":
				name := pyparse.NodeText(ch.ChildByFieldName("name"), src)
				alias := pyparse.NodeText(ch.ChildByFieldName("alias"), src)
				c.RegisterImport(modulePath, alias, fromModule, name)
			case "identifier":
				name := pyparse.NodeText(ch, src)
				c.RegisterImport(modulePath, name, fromModule, name)
			case "wildcard_import":
				// `from m import *`: every name m exports could shadow a
				// local; conservatively record the module itself under the
				// empty alias so ResolveQualifiedCall's fallback can still
				// find a same-named function in fromModule.
				c.RegisterImport(modulePath, "", fromModule, "")
			}
		}
	}
}

// ResolveQualifiedCall turns a callee expression text (as written at the
// call site, e.g. "helpers.parse" or a bare "parse" reached via a wildcard
// import) into the "module.function" key used by Summaries, given the
// module the call site lives in.
func (c *CrossFileAnalyzer) ResolveQualifiedCall(callerModule, calleeText string) string {
	head := calleeText
	rest := ""
	for i := 0; i < len(calleeText); i++ {
		if calleeText[i] == '.' {
			head = calleeText[:i]
			rest = calleeText[i:]
			break
		}
	}
	if mod, name, ok := c.ResolveImport(callerModule, head); ok {
		if name == "" {
			return mod + rest
		}
		return mod + "." + name + rest
	}
	if _, _, ok := c.ResolveImport(callerModule, ""); ok {
		// A wildcard import is in scope for this module; best effort: try
		// every module that contributed one.
		for k, t := range c.imports {
			if k.module == callerModule && k.alias == "" {
				candidate := t.module + "." + head + rest
				if _, ok := c.Summaries.Get(candidate); ok {
					return candidate
				}
			}
		}
	}
	return callerModule + "." + calleeText
}

// RecordFindings appends findings discovered in file to the project-wide
// cache, used by AnalyzeProject to assemble the final report.
func (c *CrossFileAnalyzer) RecordFindings(file string, findings []Finding) {
	c.findings[file] = append(c.findings[file], findings...)
}

// AllFindings returns every finding recorded across every analyzed file.
func (c *CrossFileAnalyzer) AllFindings() []Finding {
	var out []Finding
	for _, fs := range c.findings {
		out = append(out, fs...)
	}
	return out
}
