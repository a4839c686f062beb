package visitor

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// visitStatement dispatches one statement-level node, updating scope state,
// emitting definitions, and recursing into substatements/expressions.
func (v *visitor) visitStatement(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "function_definition":
		v.visitFunctionDefinition(n, nil)
	case "class_definition":
		v.visitClassDefinition(n, nil)
	case "decorated_definition":
		v.visitDecoratedDefinition(n)
	case "import_statement":
		v.visitImportStatement(n)
	case "import_from_statement":
		v.visitImportFromStatement(n)
	case "expression_statement":
		v.visitExpressionStatement(n)
	case "assignment", "augmented_assignment":
		v.visitAssignment(n)
	case "if_statement":
		cond := n.ChildByFieldName("condition")
		v.scanExpr(cond)
		typeChecking := isTypeCheckingGuard(cond, v.src)
		if typeChecking {
			v.typeCheckDepth++
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "block" {
				v.visitBlock(c)
			}
		}
		if typeChecking {
			v.typeCheckDepth--
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "elif_clause" || c.Kind() == "else_clause" {
				v.visitStatement(c)
			}
		}
	case "elif_clause":
		v.scanExpr(n.ChildByFieldName("condition"))
		v.visitBlock(n.ChildByFieldName("consequence"))
	case "else_clause":
		v.visitBlockChild(n, "body")
	case "for_statement":
		v.scanExpr(n.ChildByFieldName("right"))
		v.visitBlockChild(n, "body")
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			v.visitStatement(alt)
		}
	case "while_statement":
		v.scanExpr(n.ChildByFieldName("condition"))
		v.visitBlockChild(n, "body")
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			v.visitStatement(alt)
		}
	case "try_statement":
		v.visitTryStatement(n)
	case "with_statement":
		v.visitWithStatement(n)
	case "match_statement":
		v.visitMatchStatement(n)
	case "return_statement":
		v.visitReturnStatement(n)
	case "global_statement", "nonlocal_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			if n.Child(i).Kind() == "identifier" {
				v.addRef(v.scopes.qualify(text(n.Child(i), v.src)))
			}
		}
	case "block":
		v.visitBlock(n)
	case "decorator":
		v.scanExpr(n.Child(n.ChildCount() - 1))
	default:
		// Generic statements (pass_statement, assert_statement, raise_statement,
		// delete_statement, etc.) contribute only reference scanning of their
		// expression children.
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "function_definition", "class_definition", "decorated_definition",
				"import_statement", "import_from_statement", "block",
				"if_statement", "for_statement", "while_statement", "try_statement",
				"with_statement", "match_statement":
				v.visitStatement(c)
			default:
				v.scanExpr(c)
			}
		}
	}
}

// visitBlock walks every statement of a `block` node.
func (v *visitor) visitBlock(block *sitter.Node) {
	if block == nil {
		return
	}
	for i := uint(0); i < block.ChildCount(); i++ {
		v.visitStatement(block.Child(i))
	}
}

func (v *visitor) visitBlockChild(n *sitter.Node, field string) {
	v.visitBlock(n.ChildByFieldName(field))
}

func (v *visitor) visitTryStatement(n *sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "block":
			v.visitBlock(c)
		case "except_clause":
			if val := c.ChildByFieldName("value"); val != nil {
				v.scanExpr(val)
			}
			v.visitBlock(c.ChildByFieldName("body"))
			if c.ChildByFieldName("value") == nil {
				// bare except: flagged by the DANGER-BARE-EXCEPT rule, not
				// the visitor; nothing further to record here.
				_ = c
			}
		case "finally_clause", "else_clause":
			v.visitBlock(c.ChildByFieldName("body"))
		}
	}
}

func (v *visitor) visitWithStatement(n *sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "with_clause":
			for j := uint(0); j < c.ChildCount(); j++ {
				item := c.Child(j)
				if item.Kind() == "with_item" {
					v.scanExpr(item.ChildByFieldName("value"))
				}
			}
		case "block":
			v.visitBlock(c)
		}
	}
}

func (v *visitor) visitMatchStatement(n *sitter.Node) {
	v.scanExpr(n.ChildByFieldName("subject"))
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		caseClause := body.Child(i)
		if caseClause.Kind() != "case_clause" {
			continue
		}
		// Pattern bindings inside a case introduce fresh locals for
		// dead-local-by-reaching-defs analysis: each case gets its
		// own binding scope so same-named captures across cases don't merge.
		v.declarePatternCaptures(caseClause.ChildByFieldName("pattern"))
		v.visitBlockChild(caseClause, "consequence")
	}
}

// declarePatternCaptures registers identifier captures within a match
// pattern (e.g. `case [a, b]:`) as definitions of def_type variable scoped
// to the current function/module, so later reaching-defs-style liveness can
// tell apart the `a` bound in one case from the `a` bound in another.
func (v *visitor) declarePatternCaptures(pattern *sitter.Node) {
	if pattern == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "identifier" {
			name := text(n, v.src)
			if name == "_" {
				return
			}
			line, endLine, col, sb, eb := loc(n, v.lines)
			qn := v.scopes.declare(name)
			v.addDef(types.Definition{
				FullName: qn, DefType: types.DefVariable,
				Line: line, EndLine: endLine, Col: col, StartByte: sb, EndByte: eb,
			})
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(pattern)
}

func (v *visitor) visitReturnStatement(n *sitter.Node) {
	if n.ChildCount() < 2 {
		return
	}
	expr := n.Child(1)
	v.scanExpr(expr)
	// "function names returned from a containing function":
	// a bare identifier return value that resolves to a local function
	// definition is itself already a reference via scanExpr's identifier
	// handling, so no extra bookkeeping is required here.
	_ = expr
}

func (v *visitor) visitExpressionStatement(n *sitter.Node) {
	if n.ChildCount() == 0 {
		return
	}
	expr := n.Child(0)
	if expr.Kind() == "assignment" || expr.Kind() == "augmented_assignment" {
		v.visitAssignment(expr)
		return
	}
	v.scanExpr(expr)
}
