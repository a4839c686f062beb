package visitor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// frameworkDecorators names decorators that mark a definition as an indirect
// framework entry point ("Decorated by framework decorator").
// The Visitor only records which decorators were present; the Heuristic
// Scorer applies the confidence cap.
var frameworkDecorators = map[string]bool{
	"app.route": true, "router.get": true, "router.post": true,
	"router.put": true, "router.delete": true, "router.patch": true,
	"get": true, "post": true, "put": true, "delete": true, "patch": true,
	"app.get": true, "app.post": true, "app.put": true, "app.delete": true,
	"pytest.fixture": true, "fixture": true,
	"celery.task": true, "task": true, "shared_task": true,
	"click.command": true, "command": true, "cli.command": true,
	"property": true, "cached_property": true,
	"staticmethod": true, "classmethod": true,
	"abstractmethod": true,
	"event_handler": true, "on_event": true,
	"validator": true, "field_validator": true, "model_validator": true,
}

func decoratorName(decNode *sitter.Node, src []byte) string {
	// decorator -> "@" expr ; expr can be identifier, attribute, or call
	// whose function is identifier/attribute.
	expr := decNode.Child(decNode.ChildCount() - 1)
	if expr == nil {
		return ""
	}
	if expr.Kind() == "call" {
		expr = expr.ChildByFieldName("function")
	}
	return text(expr, src)
}

// visitDecoratedDefinition handles `@decorator\ndef f(): ...` / `@decorator\nclass C: ...`.
func (v *visitor) visitDecoratedDefinition(n *sitter.Node) {
	var decorators []string
	var inner *sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "decorator":
			name := decoratorName(c, v.src)
			decorators = append(decorators, name)
			v.scanExpr(c.Child(c.ChildCount() - 1))
		case "function_definition":
			inner = c
		case "class_definition":
			inner = c
		}
	}
	if inner == nil {
		return
	}
	if inner.Kind() == "function_definition" {
		v.visitFunctionDefinition(inner, decorators)
	} else {
		v.visitClassDefinition(inner, decorators)
	}
}

func hasFrameworkDecorator(decorators []string) bool {
	for _, d := range decorators {
		if frameworkDecorators[d] {
			return true
		}
		// also match by trailing segment, e.g. "app.route" vs bare "route"
		if idx := strings.LastIndexByte(d, '.'); idx >= 0 && frameworkDecorators[d[idx+1:]] {
			return true
		}
	}
	return false
}

func isAsync(n *sitter.Node) bool {
	if n.ChildCount() == 0 {
		return false
	}
	first := n.Child(0)
	return first != nil && first.Kind() == "async"
}

func (v *visitor) visitFunctionDefinition(n *sitter.Node, decorators []string) {
	nameNode := n.ChildByFieldName("name")
	name := text(nameNode, v.src)
	if name == "" {
		return
	}

	defType := types.DefFunction
	if v.scopes.inClass() {
		defType = types.DefMethod
	}

	line, endLine, col, sb, eb := loc(n, v.lines)
	qn := v.scopes.declare(name)

	isNested := v.scopes.inFunction()
	v.addDef(types.Definition{
		FullName: qn, DefType: defType,
		Line: line, EndLine: endLine, Col: col, StartByte: sb, EndByte: eb,
		IsExported:        !strings.HasPrefix(name, "_"),
		IsFrameworkManaged: hasFrameworkDecorator(decorators),
		IsCaptured:        isNested,
	})

	v.scopes.push(scopeFunction, name)
	defer v.scopes.pop()

	params := n.ChildByFieldName("parameters")
	v.visitParameters(params, defType == types.DefMethod)

	if retType := n.ChildByFieldName("return_type"); retType != nil {
		v.scanAnnotation(retType)
	}

	complexityState := newComplexityState()
	nestingTracker := 0
	body := n.ChildByFieldName("body")
	v.visitFunctionBody(body, complexityState, &nestingTracker)

	lines := endLine - line + 1
	halstead := computeHalstead(n, v.src)
	mi := types.MaintainabilityIndex(halstead.Derive().Volume, complexityState.cyclomatic, lines)
	fm := types.FunctionMetrics{
		FullName:             qn,
		CyclomaticComplexity: complexityState.cyclomatic,
		CognitiveComplexity:  complexityState.cognitive,
		NestingDepth:         complexityState.maxNesting,
		Lines:                lines,
		Halstead:             halstead,
		MaintainabilityIndex: mi,
	}
	v.functions = append(v.functions, fm)

	_ = isAsync(n)
}

// visitFunctionBody walks the body recursively for both statement-level
// definitions/references (via visitStatement/visitBlock) and, in the same
// traversal, accumulates cyclomatic/cognitive complexity contributions.
// Complexity computation does not recurse into nested function/class
// bodies ("do not recurse into nested function/class bodies").
func (v *visitor) visitFunctionBody(body *sitter.Node, cs *complexityState, nesting *int) {
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		stmt := body.Child(i)
		v.visitStatement(stmt)
		accumulateComplexity(stmt, cs, 0)
	}
}

func (v *visitor) visitParameters(params *sitter.Node, isMethod bool) {
	if params == nil {
		return
	}
	first := true
	for i := uint(0); i < params.ChildCount(); i++ {
		p := params.Child(i)
		var nameNode *sitter.Node
		var reducedConfidence bool
		switch p.Kind() {
		case "identifier":
			nameNode = p
		case "typed_parameter":
			nameNode = p.Child(0)
			if ann := p.ChildByFieldName("type"); ann != nil {
				v.scanAnnotation(ann)
			}
		case "default_parameter", "typed_default_parameter":
			nameNode = p.ChildByFieldName("name")
			if val := p.ChildByFieldName("value"); val != nil {
				v.scanExpr(val)
			}
			if ann := p.ChildByFieldName("type"); ann != nil {
				v.scanAnnotation(ann)
			}
		case "list_splat_pattern":
			nameNode = p.Child(p.ChildCount() - 1)
			reducedConfidence = true
		case "dictionary_splat_pattern":
			nameNode = p.Child(p.ChildCount() - 1)
			reducedConfidence = true
		default:
			continue
		}
		if nameNode == nil {
			continue
		}
		name := text(nameNode, v.src)
		if first && isMethod && (name == "self" || name == "cls") {
			first = false
			continue
		}
		first = false
		if name == "" {
			continue
		}
		line, endLine, col, sb, eb := loc(nameNode, v.lines)
		qn := v.scopes.declare(name)
		conf := 100
		if reducedConfidence {
			conf = 50 // *args/**kwargs: interface conformance often requires them
		}
		v.addDef(types.Definition{
			FullName: qn, DefType: types.DefParameter,
			Line: line, EndLine: endLine, Col: col, StartByte: sb, EndByte: eb,
			Confidence: conf,
		})
	}
}

func (v *visitor) visitClassDefinition(n *sitter.Node, decorators []string) {
	nameNode := n.ChildByFieldName("name")
	name := text(nameNode, v.src)
	if name == "" {
		return
	}

	line, endLine, col, sb, eb := loc(n, v.lines)
	qn := v.scopes.declare(name)

	var bases []string
	if super := n.ChildByFieldName("superclasses"); super != nil {
		for i := uint(0); i < super.ChildCount(); i++ {
			c := super.Child(i)
			switch c.Kind() {
			case "identifier", "attribute":
				base := text(c, v.src)
				bases = append(bases, base)
				v.addRef(base)
			case "keyword_argument":
				// e.g. class Foo(metaclass=Meta): scan the value for refs.
				v.scanExpr(c.ChildByFieldName("value"))
			}
		}
	}

	v.addDef(types.Definition{
		FullName: qn, DefType: types.DefClass,
		Line: line, EndLine: endLine, Col: col, StartByte: sb, EndByte: eb,
		IsExported:         !strings.HasPrefix(name, "_"),
		IsFrameworkManaged: hasFrameworkDecorator(decorators),
		BaseClasses:        bases,
	})

	v.scopes.push(scopeClass, name)
	defer v.scopes.pop()

	v.visitBlockChild(n, "body")
	v.computeLCOM4(qn, n)
}

// visitImportStatement handles `import a, b as c`.
func (v *visitor) visitImportStatement(n *sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "dotted_name", "identifier":
			v.declareImport(text(c, v.src), "", n)
		case "aliased_import":
			name := text(c.ChildByFieldName("name"), v.src)
			alias := text(c.ChildByFieldName("alias"), v.src)
			v.declareImport(name, alias, c)
		}
	}
}

// visitImportFromStatement handles `from m import a, b as c` / `from . import x`
// / `from m import *`.
func (v *visitor) visitImportFromStatement(n *sitter.Node) {
	var modulePath string
	var wildcard bool
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "dotted_name":
			if modulePath == "" {
				modulePath = text(c, v.src)
			} else {
				v.declareImport(text(c, v.src), "", c)
			}
		case "relative_import":
			modulePath = text(c, v.src)
		case "wildcard_import":
			wildcard = true
		case "aliased_import":
			name := text(c.ChildByFieldName("name"), v.src)
			alias := text(c.ChildByFieldName("alias"), v.src)
			v.declareImport(modulePath+"."+name, alias, c)
		case "identifier":
			v.declareImport(modulePath+"."+text(c, v.src), "", c)
		}
	}
	if wildcard {
		v.hasEscape = true
	}
}

func (v *visitor) declareImport(importPath, alias string, n *sitter.Node) {
	simple := alias
	if simple == "" {
		parts := strings.Split(importPath, ".")
		simple = parts[len(parts)-1]
	}
	if simple == "" {
		return
	}
	line, endLine, col, sb, eb := loc(n, v.lines)
	qn := v.scopes.declare(simple)
	v.addDef(types.Definition{
		FullName: qn, DefType: types.DefImport,
		Line: line, EndLine: endLine, Col: col, StartByte: sb, EndByte: eb,
		IsTypeChecking: v.typeCheckDepth > 0,
	})
}

// visitAssignment handles simple and annotated assignment, including
// class-level constants and __all__.
func (v *visitor) visitAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if ann := n.ChildByFieldName("type"); ann != nil {
		v.scanAnnotation(ann)
	}
	if right != nil {
		v.scanExpr(right)
	}
	if left == nil {
		return
	}
	v.bindAssignmentTargets(left, right)
}

func (v *visitor) bindAssignmentTargets(left, right *sitter.Node) {
	switch left.Kind() {
	case "identifier":
		name := text(left, v.src)
		if name == "__all__" {
			v.recordDunderAll(right)
			return
		}
		v.bindSimpleTarget(left, name, right)
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := uint(0); i < left.ChildCount(); i++ {
			c := left.Child(i)
			if c.Kind() == "identifier" {
				v.bindSimpleTarget(c, text(c, v.src), nil)
			}
		}
	case "attribute", "subscript":
		v.scanExpr(left)
	}
}

func (v *visitor) bindSimpleTarget(nameNode *sitter.Node, name string, right *sitter.Node) {
	if name == "" || name == "_" {
		return
	}
	// Only module-level and class-level assignment produce a Definition
	// ( "module-level variables"); function-local assignment is
	// flow state, not a reportable Definition.
	if v.scopes.inFunction() {
		return
	}
	line, endLine, col, sb, eb := loc(nameNode, v.lines)
	qn := v.scopes.declare(name)
	isConst := name == strings.ToUpper(name) && name != strings.ToLower(name)
	v.addDef(types.Definition{
		FullName: qn, DefType: types.DefVariable,
		Line: line, EndLine: endLine, Col: col, StartByte: sb, EndByte: eb,
		IsExported: !strings.HasPrefix(name, "_"),
		IsConstant: isConst,
	})
}

func (v *visitor) recordDunderAll(right *sitter.Node) {
	if right == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "string" {
			s := strings.Trim(text(n, v.src), "'\"")
			v.dunderAll = append(v.dunderAll, s)
			v.addRef(s)
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(right)
}
