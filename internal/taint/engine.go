package taint

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

// DeadLocal is a variable binding that reaching-definitions analysis proved
// never reaches a use, surfaced for scenario 5 (dead pattern
// captures in match/case arms).
type DeadLocal struct {
	File string
	Name string
	Line int
}

// funcEntry is one discovered function/method definition, found by walking
// the module body (and every nested class/function) once up front.
type funcEntry struct {
	qualifiedName string
	params        *sitter.Node
	body          *sitter.Node
}

// AnalyzeProject runs the taint engine over every parsed file: it first
// registers all import bindings so callee names resolve across files, then
// runs the intraprocedural pass per function (seeding cross-file call
// resolution through analyzer.Resolve), and finally runs reaching-
// definitions over each function body for dead-local detection. Grounded on
// cytoscnpy/src/taint/crossfile.rs's analyze_project, generalized to also
// run the CFG pass that file never performed itself.
func AnalyzeProject(analysisRoot string, files []*pyparse.ParsedFile) ([]Finding, []DeadLocal) {
	cfa := NewCrossFileAnalyzer()

	type fileFuncs struct {
		file  *pyparse.ParsedFile
		mod   string
		funcs []funcEntry
	}
	var perFile []fileFuncs

	for _, pf := range files {
		mod := pyparse.ModulePath(analysisRoot, pf.Path)
		if mod == "" {
			mod = pf.Path
		}
		cfa.ExtractImports(mod, pf.Root, pf.Source)
		funcs := collectFunctions(pf.Root, pf.Source, mod, nil)
		perFile = append(perFile, fileFuncs{file: pf, mod: mod, funcs: funcs})
	}

	// Pre-register every function's qualified name against an empty
	// placeholder so forward references resolve to "known but not yet
	// computed" rather than "unknown" during the single analysis pass
	// below; actual summaries overwrite these as each function is visited.
	for _, ff := range perFile {
		for _, fn := range ff.funcs {
			cfa.Summaries.GetOrCompute(fn.qualifiedName, func() FunctionSummary {
				return FunctionSummary{Name: fn.qualifiedName, ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}}
			})
		}
	}

	var deadLocals []DeadLocal

	for _, ff := range perFile {
		var fileFindings []Finding
		for _, fn := range ff.funcs {
			analyzer := &Analyzer{
				File: ff.file.Path,
				Src:  ff.file.Source,
				Resolve: func(calleeName string) (FunctionSummary, bool) {
					qualified := cfa.ResolveQualifiedCall(ff.mod, calleeName)
					if s, ok := cfa.Summaries.Get(qualified); ok {
						return s, true
					}
					return cfa.Summaries.Get(calleeName)
				},
			}
			findings, summary := analyzer.AnalyzeFunction(fn.qualifiedName, fn.params, fn.body)
			cfa.Summaries.summaries[fn.qualifiedName] = summary
			fileFindings = append(fileFindings, findings...)

			deadLocals = append(deadLocals, deadLocalsForFunction(ff.file.Path, fn.body, ff.file.Source)...)
		}
		cfa.RecordFindings(ff.file.Path, fileFindings)
	}

	return cfa.AllFindings(), deadLocals
}

// collectFunctions walks n collecting every function/async-function
// definition reachable from the module root, qualifying each by its
// enclosing class (dotted) the way internal/clones/extract.go qualifies
// clone instances.
func collectFunctions(n *sitter.Node, src []byte, modulePath string, classStack []string) []funcEntry {
	if n == nil {
		return nil
	}
	var out []funcEntry
	var walk func(n *sitter.Node, classStack []string)
	walk = func(n *sitter.Node, classStack []string) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "function_definition":
			name := pyparse.NodeText(n.ChildByFieldName("name"), src)
			qualified := modulePath
			for _, c := range classStack {
				qualified += "." + c
			}
			qualified += "." + name
			out = append(out, funcEntry{
				qualifiedName: qualified,
				params:        n.ChildByFieldName("parameters"),
				body:          n.ChildByFieldName("body"),
			})
			walk(n.ChildByFieldName("body"), classStack)

		case "class_definition":
			name := pyparse.NodeText(n.ChildByFieldName("name"), src)
			walk(n.ChildByFieldName("body"), append(append([]string{}, classStack...), name))

		case "decorated_definition":
			for i := uint(0); i < n.ChildCount(); i++ {
				c := n.Child(i)
				if c.Kind() == "function_definition" || c.Kind() == "class_definition" {
					walk(c, classStack)
				}
			}

		default:
			for i := uint(0); i < n.ChildCount(); i++ {
				walk(n.Child(i), classStack)
			}
		}
	}
	walk(n, classStack)
	return out
}

// deadLocalsForFunction builds the function's CFG, runs reaching-
// definitions, and reports every definition that never reaches a use.
// Restricted to match-case pattern captures (scenario 5) since a
// blanket dead-assignment check over every local would duplicate the
// Visitor's own unused-variable handling.
func deadLocalsForFunction(file string, body *sitter.Node, src []byte) []DeadLocal {
	if body == nil {
		return nil
	}
	matchClauses := findMatchCaseDefs(body, src)
	if len(matchClauses) == 0 {
		return nil
	}
	cfg := BuildCfg(body, src)
	fr := AnalyzeReachingDefinitions(cfg)

	var out []DeadLocal
	for _, d := range matchClauses {
		if !fr.IsDefUsed(d.name, d.line) {
			out = append(out, DeadLocal{File: file, Name: d.name, Line: d.line})
		}
	}
	return out
}

func findMatchCaseDefs(body *sitter.Node, src []byte) []defUse {
	var out []defUse
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "match_statement" {
			if caseBody := n.ChildByFieldName("body"); caseBody != nil {
				for i := uint(0); i < caseBody.ChildCount(); i++ {
					cc := caseBody.Child(i)
					if cc.Kind() != "case_clause" {
						continue
					}
					var collect func(n *sitter.Node)
					collect = func(n *sitter.Node) {
						if n == nil {
							return
						}
						if n.Kind() == "identifier" {
							name := pyparse.NodeText(n, src)
							if name != "_" {
								out = append(out, defUse{name: name, line: int(n.StartPosition().Row) + 1})
							}
							return
						}
						for i := uint(0); i < n.ChildCount(); i++ {
							collect(n.Child(i))
						}
					}
					collect(cc.ChildByFieldName("pattern"))
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return out
}
