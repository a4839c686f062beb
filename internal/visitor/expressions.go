package visitor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// escapeCallNames are call targets whose presence in a file taints it
// ("What disables precision (escapes)").
var escapeCallNames = map[string]bool{
	"eval": true, "exec": true, "globals": true, "locals": true,
}

// scanExpr recursively scans an expression subtree for references, per
// "What counts as a reference": bare name loads, attribute
// loads, decorator expressions, eval/exec/getattr/hasattr string arguments.
func (v *visitor) scanExpr(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "identifier":
		name := text(n, v.src)
		if qn, ok := v.scopes.resolveLocal(name); ok {
			v.addRef(qn)
		}
		v.addRef(name)
		return

	case "attribute":
		obj := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		v.scanExpr(obj)
		if attr != nil {
			full := text(n, v.src)
			v.addRef(full)
			v.addRef(text(attr, v.src))
		}
		return

	case "call":
		v.scanCall(n)
		return

	case "string":
		v.scanStringLiteral(n)
		return

	case "lambda":
		v.scopes.push(scopeFunction, "<lambda>")
		defer v.scopes.pop()
		v.visitParameters(n.ChildByFieldName("parameters"), false)
		v.scanExpr(n.ChildByFieldName("body"))
		return

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		for i := uint(0); i < n.ChildCount(); i++ {
			v.scanExpr(n.Child(i))
		}
		return

	case "keyword_argument":
		v.scanExpr(n.ChildByFieldName("value"))
		return
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		v.scanExpr(n.Child(i))
	}
}

// scanCall handles call-expression-specific reference/escape logic: the
// dynamic-eval family, getattr/hasattr string arguments, and ordinary
// function/argument scanning.
func (v *visitor) scanCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	fnName := text(fn, v.src)
	bareName := fnName
	if dot := strings.LastIndexByte(bareName, '.'); dot >= 0 {
		bareName = bareName[dot+1:]
	}

	switch bareName {
	case "eval", "exec", "globals", "locals":
		v.hasEscape = true
	case "getattr", "hasattr":
		v.scanGetattrCall(args)
	}

	v.scanExpr(fn)
	if args != nil {
		for i := uint(0); i < args.ChildCount(); i++ {
			v.scanExpr(args.Child(i))
		}
	}
}

// scanGetattrCall handles a literal second argument to
// getattr/hasattr is scanned as a reference to that named identifier; a
// non-literal second argument taints the whole file (an escape).
func (v *visitor) scanGetattrCall(args *sitter.Node) {
	if args == nil {
		return
	}
	var positional []*sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		c := args.Child(i)
		switch c.Kind() {
		case "(", ")", ",":
		default:
			positional = append(positional, c)
		}
	}
	if len(positional) < 2 {
		return
	}
	nameArg := positional[1]
	if nameArg.Kind() == "string" {
		name := strings.Trim(text(nameArg, v.src), "'\"")
		v.addRef(name)
	} else {
		v.hasEscape = true
	}
}

// scanStringLiteral scans an f-string's interpolation expressions and
// recognizes annotation-shaped string literals ("List[Dict]") so their
// identifier tokens count as references .
func (v *visitor) scanStringLiteral(n *sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.Kind() == "interpolation" {
			for j := uint(0); j < c.ChildCount(); j++ {
				v.scanExpr(c.Child(j))
			}
		}
	}
}

// scanAnnotation handles a type-annotation expression node, which may be a
// direct identifier/attribute reference ("List[Dict]" written as real
// syntax) or a string-quoted forward reference ("List[Dict]" as a string
// literal) and the TYPE_CHECKING-import precision case.
func (v *visitor) scanAnnotation(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Kind() == "string" {
		raw := strings.Trim(text(n, v.src), "'\"")
		for _, tok := range tokenizeIdentifiers(raw) {
			v.addRef(tok)
		}
		return
	}
	v.scanExpr(n)
}

// tokenizeIdentifiers extracts identifier-shaped tokens from a raw string,
// used to resolve string-valued annotations against definitions.
func tokenizeIdentifiers(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if strings.ContainsRune(identTokenPattern, r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return toks
}

// isTypeCheckingGuard reports whether cond is `TYPE_CHECKING` or
// `typing.TYPE_CHECKING`, the standard guard that makes an import
// type-checker-only (the TYPE_CHECKING-import precision case).
func isTypeCheckingGuard(cond *sitter.Node, src []byte) bool {
	if cond == nil {
		return false
	}
	name := text(cond, src)
	return name == "TYPE_CHECKING" || strings.HasSuffix(name, ".TYPE_CHECKING")
}

// preScanEscapes walks the whole tree once up front to detect
// module-tainting dynamic constructs that may occur anywhere, including
// inside nested scopes the main pass has not yet reached when it needs to
// know whether to force-reference .
func (v *visitor) preScanEscapes(root *sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || v.hasEscape {
			return
		}
		switch n.Kind() {
		case "import_from_statement":
			for i := uint(0); i < n.ChildCount(); i++ {
				if n.Child(i).Kind() == "wildcard_import" {
					v.hasEscape = true
					return
				}
			}
		case "call":
			fn := n.ChildByFieldName("function")
			name := text(fn, v.src)
			if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
				name = name[dot+1:]
			}
			if escapeCallNames[name] {
				v.hasEscape = true
				return
			}
			if name == "getattr" || name == "hasattr" {
				args := n.ChildByFieldName("arguments")
				v.scanGetattrCallEscapeOnly(args)
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func (v *visitor) scanGetattrCallEscapeOnly(args *sitter.Node) {
	if args == nil {
		return
	}
	var positional []*sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		c := args.Child(i)
		switch c.Kind() {
		case "(", ")", ",":
		default:
			positional = append(positional, c)
		}
	}
	if len(positional) >= 2 && positional[1].Kind() != "string" {
		v.hasEscape = true
	}
}

// preScanDunderAll is a best-effort early look for `__all__` so scan order
// within the module does not matter for export preservation.
func (v *visitor) preScanDunderAll(root *sitter.Node) {
	for i := uint(0); i < root.ChildCount(); i++ {
		stmt := root.Child(i)
		if stmt.Kind() != "expression_statement" || stmt.ChildCount() == 0 {
			continue
		}
		assign := stmt.Child(0)
		if assign.Kind() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left != nil && left.Kind() == "identifier" && text(left, v.src) == "__all__" {
			v.recordDunderAll(assign.ChildByFieldName("right"))
		}
	}
}

// forceEscapeReferences: once a file is tainted by
// an escape, every import and top-level definition in it is treated as
// referenced (references forced >= 1; confidence is untouched).
func (v *visitor) forceEscapeReferences() {
	for i := range v.defs {
		d := &v.defs[i]
		if d.DefType == types.DefImport || d.IsModuleLevel {
			if v.refs[d.FullName] == 0 {
				v.refs[d.FullName] = 1
			}
		}
	}
}
