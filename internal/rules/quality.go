package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// QualityThresholds mirrors the subset of config.Quality the structural
// rule checks need; kept as its own small struct so internal/rules does
// not import internal/config (avoiding an import cycle risk as config
// grows).
type QualityThresholds struct {
	MaxArgs  int
	MaxLines int
	MaxNesting int
}

// qualityRules implements the AST-local members of the "Quality"
// rule family: arg-count, function-length, mutable default arguments, bare
// except, and identity-vs-equality comparison to singletons. Complexity,
// cognitive complexity, and LCOM4 thresholds are evaluated separately in
// MetricFindings since those metrics are already computed once by the
// Definition Visitor and re-walking the AST here would be
// redundant.
func qualityRules(th QualityThresholds) []*Rule {
	return []*Rule{
		{
			ID: "QUALITY-TOO-MANY-ARGS", Category: "quality", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"function_definition"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				params := n.ChildByFieldName("parameters")
				if params == nil {
					return
				}
				count := countParams(params)
				if count <= th.MaxArgs {
					return
				}
				line, col := location(n)
				emit(line, col, "function takes too many parameters", types.SeverityLow)
			},
		},
		{
			ID: "QUALITY-FUNCTION-TOO-LONG", Category: "quality", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"function_definition"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				start := n.StartPosition()
				end := n.EndPosition()
				length := int(end.Row-start.Row) + 1
				if length <= th.MaxLines {
					return
				}
				line, col := location(n)
				emit(line, col, "function body is too long", types.SeverityLow)
			},
		},
		{
			ID: "QUALITY-MUTABLE-DEFAULT-ARG", Category: "quality", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"default_parameter", "typed_default_parameter"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				val := n.ChildByFieldName("value")
				if val == nil || !isMutableLiteral(val, ctx.Src) {
					return
				}
				line, col := location(n)
				emit(line, col, "mutable default argument is shared across all calls", types.SeverityMedium)
			},
		},
		{
			ID: "QUALITY-BARE-EXCEPT", Category: "quality", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"except_clause"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				// A bare `except:` has no child naming the exception type;
				// the only non-keyword, non-":" child (if any) is that type.
				for i := uint(0); i < n.ChildCount(); i++ {
					c := n.Child(i)
					switch c.Kind() {
					case "except", ":", "block", "as_pattern":
					default:
						return
					}
				}
				line, col := location(n)
				emit(line, col, "bare except clause catches every exception, including SystemExit/KeyboardInterrupt", types.SeverityMedium)
			},
		},
		{
			ID: "QUALITY-IDENTITY-SINGLETON-COMPARE", Category: "quality", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"comparison_operator"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				var op string
				for i := uint(0); i < n.ChildCount(); i++ {
					c := n.Child(i)
					if c.Kind() == "==" || c.Kind() == "!=" {
						op = c.Kind()
						break
					}
				}
				if op == "" {
					return
				}
				for i := uint(0); i < n.ChildCount(); i++ {
					c := n.Child(i)
					if c.Kind() == "none" || c.Kind() == "true" || c.Kind() == "false" {
						line, col := location(n)
						want := "is"
						if op == "!=" {
							want = "is not"
						}
						emit(line, col, op+" compares by equality to a singleton; use \""+want+"\" instead", types.SeverityLow)
						return
					}
				}
			},
		},
	}
}

func countParams(params *sitter.Node) int {
	count := 0
	for i := uint(0); i < params.ChildCount(); i++ {
		switch params.Child(i).Kind() {
		case "identifier", "typed_parameter", "default_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern":
			count++
		}
	}
	return count
}

func isMutableLiteral(n *sitter.Node, src []byte) bool {
	switch n.Kind() {
	case "list", "dictionary", "set":
		return true
	case "call":
		switch calleeBareName(n, src) {
		case "list", "dict", "set":
			return true
		}
	}
	return false
}

// MetricFindings evaluates the threshold-based quality checks that
// operate over metrics already computed by the Definition
// Visitor: cyclomatic complexity, cognitive complexity, nesting depth, and
// per-class LCOM4.
func MetricFindings(file string, functions []types.FunctionMetrics, lcom4 map[string]int, th QualityMetricThresholds) []types.Finding {
	var out []types.Finding
	for _, fm := range functions {
		if th.MaxComplexity > 0 && fm.CyclomaticComplexity > th.MaxComplexity {
			out = append(out, types.Finding{
				RuleID: "QUALITY-CYCLOMATIC-COMPLEXITY", Category: "quality",
				Message:  "cyclomatic complexity exceeds threshold",
				File:     file, Severity: types.SeverityMedium,
			})
		}
		if th.MaxCognitive > 0 && fm.CognitiveComplexity > th.MaxCognitive {
			out = append(out, types.Finding{
				RuleID: "QUALITY-COGNITIVE-COMPLEXITY", Category: "quality",
				Message:  "cognitive complexity exceeds threshold",
				File:     file, Severity: types.SeverityMedium,
			})
		}
		if th.MaxNesting > 0 && fm.NestingDepth > th.MaxNesting {
			out = append(out, types.Finding{
				RuleID: "QUALITY-NESTING-DEPTH", Category: "quality",
				Message:  "nesting depth exceeds threshold",
				File:     file, Severity: types.SeverityLow,
			})
		}
	}
	for class, lcom := range lcom4 {
		if th.MaxLCOM4 > 0 && lcom > th.MaxLCOM4 {
			out = append(out, types.Finding{
				RuleID: "QUALITY-LCOM4", Category: "quality",
				Message: "class " + class + " has low cohesion (LCOM4=" + itoa(lcom) + ")",
				File:    file, Severity: types.SeverityLow,
			})
		}
	}
	return out
}

// QualityMetricThresholds mirrors config.Quality's metric-derived fields.
type QualityMetricThresholds struct {
	MaxComplexity int
	MaxCognitive  int
	MaxNesting    int
	MaxLCOM4      int
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
