package visitor

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// complexityState accumulates cyclomatic and cognitive (SonarSource model)
// complexity for one function body, metrics section.
type complexityState struct {
	cyclomatic int
	cognitive  int
	maxNesting int
}

func newComplexityState() *complexityState {
	return &complexityState{cyclomatic: 1}
}

func (cs *complexityState) trackNesting(depth int) {
	if depth > cs.maxNesting {
		cs.maxNesting = depth
	}
}

// accumulateComplexity walks one statement/expression subtree, adding to cs.
// It does not descend into nested function/class/lambda bodies: each of
// those gets its own complexityState when the Visitor reaches it directly.
func accumulateComplexity(n *sitter.Node, cs *complexityState, depth int) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "function_definition", "class_definition", "lambda":
		return

	case "if_statement":
		cs.cyclomatic++
		cs.cognitive += 1 + depth
		cs.trackNesting(depth + 1)
		accumulateComplexity(n.ChildByFieldName("condition"), cs, depth)
		accumulateComplexity(n.ChildByFieldName("consequence"), cs, depth+1)
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "elif_clause":
				cs.cyclomatic++
				cs.cognitive += 1 + depth
				accumulateComplexity(c.ChildByFieldName("condition"), cs, depth)
				accumulateComplexity(c.ChildByFieldName("consequence"), cs, depth+1)
			case "else_clause":
				cs.cognitive++
				accumulateComplexity(c.ChildByFieldName("body"), cs, depth+1)
			}
		}
		return

	case "for_statement", "while_statement":
		cs.cyclomatic++
		cs.cognitive += 1 + depth
		cs.trackNesting(depth + 1)
		accumulateComplexity(n.ChildByFieldName("condition"), cs, depth)
		accumulateComplexity(n.ChildByFieldName("right"), cs, depth)
		accumulateComplexity(n.ChildByFieldName("body"), cs, depth+1)
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			cs.cognitive++
			accumulateComplexity(alt, cs, depth+1)
		}
		return

	case "try_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "block":
				accumulateComplexity(c, cs, depth)
			case "except_clause":
				cs.cyclomatic++
				cs.cognitive += 1 + depth
				cs.trackNesting(depth + 1)
				accumulateComplexity(c.ChildByFieldName("body"), cs, depth+1)
			case "finally_clause", "else_clause":
				accumulateComplexity(c.ChildByFieldName("body"), cs, depth)
			}
		}
		return

	case "match_statement":
		body := n.ChildByFieldName("body")
		if body != nil {
			for i := uint(0); i < body.ChildCount(); i++ {
				cc := body.Child(i)
				if cc.Kind() != "case_clause" {
					continue
				}
				cs.cyclomatic++
				cs.cognitive += 1 + depth
				accumulateComplexity(cc.ChildByFieldName("consequence"), cs, depth+1)
			}
		}
		return

	case "conditional_expression":
		cs.cyclomatic++
		cs.cognitive += 1 + depth
		for i := uint(0); i < n.ChildCount(); i++ {
			accumulateComplexity(n.Child(i), cs, depth)
		}
		return

	case "boolean_operator":
		cs.cyclomatic++
		cs.cognitive++
		for i := uint(0); i < n.ChildCount(); i++ {
			accumulateComplexity(n.Child(i), cs, depth)
		}
		return
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		accumulateComplexity(n.Child(i), cs, depth)
	}
}
