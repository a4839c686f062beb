package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// performanceRules implements a representative core of the
// performance rule family: the patterns detectable from a loop node's immediate
// body without full dataflow (regex compilation, string-accumulation,
// try/except-as-control-flow, and a bare `read_csv` without a row limit).
func performanceRules() []*Rule {
	return []*Rule{
		{
			ID: "PERF-REGEX-COMPILE-IN-LOOP", Category: "performance", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"for_statement", "while_statement"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				forEachLoopBodyCall(n, func(call *sitter.Node) {
					if callee(call, ctx.Src) != "re.compile" {
						return
					}
					line, col := location(call)
					emit(line, col, "re.compile() inside a loop recompiles the pattern every iteration", types.SeverityMedium)
				})
			},
		},
		{
			ID: "PERF-STRING-CONCAT-ACCUMULATOR-LOOP", Category: "performance", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"for_statement", "while_statement"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				body := n.ChildByFieldName("body")
				if body == nil {
					return
				}
				for i := uint(0); i < body.ChildCount(); i++ {
					stmt := body.Child(i)
					if stmt.Kind() != "expression_statement" || stmt.ChildCount() == 0 {
						continue
					}
					assign := stmt.Child(0)
					if assign.Kind() != "augmented_assignment" {
						continue
					}
					left := assign.ChildByFieldName("left")
					op := assign.ChildByFieldName("operator")
					if left == nil || left.Kind() != "identifier" {
						continue
					}
					if op != nil && ctx.text(op) != "+=" {
						continue
					}
					line, col := location(assign)
					emit(line, col, "string accumulation with += in a loop is quadratic; use str.join() instead", types.SeverityLow)
				}
			},
		},
		{
			ID: "PERF-TRY-EXCEPT-CONTROL-FLOW-IN-LOOP", Category: "performance", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"for_statement", "while_statement"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				body := n.ChildByFieldName("body")
				if body == nil {
					return
				}
				for i := uint(0); i < body.ChildCount(); i++ {
					if body.Child(i).Kind() == "try_statement" {
						line, col := location(body.Child(i))
						emit(line, col, "try/except used as loop control flow has exception-handling overhead per iteration", types.SeverityLow)
					}
				}
			},
		},
		{
			ID: "PERF-READ-CSV-NO-LIMIT", Category: "performance", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if calleeBareName(n, ctx.Src) != "read_csv" {
					return
				}
				args := callArgs(n)
				if keywordArgValue(args, "chunksize", ctx.Src) != nil ||
					keywordArgValue(args, "nrows", ctx.Src) != nil ||
					keywordArgValue(args, "iterator", ctx.Src) != nil {
					return
				}
				line, col := location(n)
				emit(line, col, "read_csv() without chunksize/nrows/iterator loads the entire file into memory", types.SeverityLow)
			},
		},
		{
			ID: "PERF-LIST-CAST-OVER-LAZY-ITERATOR", Category: "performance", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if calleeBareName(n, ctx.Src) != "list" {
					return
				}
				args := callArgs(n)
				if len(args) != 1 || args[0].Kind() != "call" {
					return
				}
				inner := calleeBareName(args[0], ctx.Src)
				if inner != "range" && inner != "map" && inner != "filter" {
					return
				}
				line, col := location(n)
				emit(line, col, "list("+inner+"(...)) materializes a lazy iterator eagerly", types.SeverityLow)
			},
		},
	}
}

// forEachLoopBodyCall invokes fn for every call expression found in n's
// body, not descending into nested function/class definitions or nested
// loops (each loop reports only the calls directly within it).
func forEachLoopBodyCall(n *sitter.Node, fn func(call *sitter.Node)) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	var walk func(c *sitter.Node)
	walk = func(c *sitter.Node) {
		if c == nil {
			return
		}
		switch c.Kind() {
		case "function_definition", "class_definition", "for_statement", "while_statement":
			return
		case "call":
			fn(c)
		}
		for i := uint(0); i < c.ChildCount(); i++ {
			walk(c.Child(i))
		}
	}
	walk(body)
}
