package taint

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

// sanitizerCalls are call names whose return value is never tainted
// regardless of argument taint, grounded on
// cytoscnpy/src/taint/propagation.rs's is_sanitizer_call.
var sanitizerCalls = map[string]bool{
	"int": true, "float": true, "bool": true,
	"html.escape": true, "escape": true, "cgi.escape": true,
	"markupsafe.escape": true, "flask.escape": true,
	"shlex.quote": true, "shlex.split": true,
	"urllib.parse.quote": true, "quote": true,
	"bleach.clean": true, "os.path.basename": true,
}

// IsSanitizerCall reports whether a call to name is treated as clearing
// taint from its arguments.
func IsSanitizerCall(name string) bool {
	return sanitizerCalls[name]
}

// IsParameterizedQuery reports whether a `.execute`/`.executemany` call has
// 2 or more arguments, the shape that means the query string and its
// parameters are passed separately (safe) rather than string-built
// (unsafe). Grounded on propagation.rs's is_parameterized_query.
func IsParameterizedQuery(calleeName string, argCount int) bool {
	return (strings.HasSuffix(calleeName, ".execute") || strings.HasSuffix(calleeName, ".executemany")) && argCount >= 2
}

// GetAssignedName extracts the name an assignment target binds, handling
// plain identifiers and tuple-unpacking (comma-joined, matching
// propagation.rs's get_assigned_name).
func GetAssignedName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "identifier":
		return pyparse.NodeText(n, src)
	case "pattern_list", "tuple_pattern", "tuple":
		var names []string
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "identifier" {
				names = append(names, pyparse.NodeText(c, src))
			}
		}
		return strings.Join(names, ",")
	}
	return ""
}

// IsExprTainted evaluates whether expr carries taint under state, returning
// the provenance to propagate if so. Grounded on propagation.rs's
// is_expr_tainted: Name/BinOp/Call(receiver-attribute)/Attribute/
// Subscript/Tuple/List/Dict/conditional-expression; everything else is
// conservatively untainted.
func IsExprTainted(n *sitter.Node, src []byte, state *State) (Info, bool) {
	if n == nil {
		return Info{}, false
	}
	switch n.Kind() {
	case "identifier":
		name := pyparse.NodeText(n, src)
		return state.GetTaint(name)

	case "binary_operator":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if info, ok := IsExprTainted(left, src, state); ok {
			return info, true
		}
		return IsExprTainted(right, src, state)

	case "string":
		// f-string interpolations: any {expr} segment that is tainted taints
		// the whole literal.
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() != "interpolation" {
				continue
			}
			for j := uint(0); j < c.ChildCount(); j++ {
				if info, ok := IsExprTainted(c.Child(j), src, state); ok {
					return info, true
				}
			}
		}
		return Info{}, false

	case "call":
		fn := n.ChildByFieldName("function")
		if fn != nil && fn.Kind() == "attribute" {
			obj := fn.ChildByFieldName("object")
			if info, ok := IsExprTainted(obj, src, state); ok {
				return info, true
			}
		}
		args := n.ChildByFieldName("arguments")
		if args != nil {
			for i := uint(0); i < args.ChildCount(); i++ {
				if info, ok := IsExprTainted(args.Child(i), src, state); ok {
					return info, true
				}
			}
		}
		return Info{}, false

	case "attribute":
		return IsExprTainted(n.ChildByFieldName("object"), src, state)

	case "subscript":
		return IsExprTainted(n.ChildByFieldName("value"), src, state)

	case "tuple", "list", "set", "dictionary", "keyword_argument":
		for i := uint(0); i < n.ChildCount(); i++ {
			if info, ok := IsExprTainted(n.Child(i), src, state); ok {
				return info, true
			}
		}
		return Info{}, false

	case "conditional_expression":
		// `a if cond else b`: tainted if either branch is tainted.
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "if" || c.Kind() == "else" {
				continue
			}
			if info, ok := IsExprTainted(c, src, state); ok {
				return info, true
			}
		}
		return Info{}, false
	}
	return Info{}, false
}
