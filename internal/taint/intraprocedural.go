package taint

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// Analyzer runs the intraprocedural taint pass over one function body,
// grounded on cytoscnpy/src/taint/intraprocedural.rs's analyze_function /
// analyze_stmt / check_expr_for_sinks.
type Analyzer struct {
	File     string
	Src      []byte
	Resolve  func(calleeName string) (FunctionSummary, bool) // cross-file/summary lookup
	findings []Finding
}

// AnalyzeFunction walks fn's parameters and body, returning every taint
// finding and the function's own summary for callers further up the chain.
func (a *Analyzer) AnalyzeFunction(name string, params *sitter.Node, body *sitter.Node) ([]Finding, FunctionSummary) {
	a.findings = nil
	state := NewState()
	paramNames := a.seedParamSources(params, state)

	a.analyzeBlock(body, state)

	summary := FunctionSummary{
		Name:          name,
		ParamToReturn: make(map[string]bool),
		ParamToSinks:  make(map[string][]string),
	}
	a.computeSummary(&summary, paramNames, params, body)

	return a.findings, summary
}

// seedParamSources marks parameters whose default value is a FastAPI
// source (Query/Path/Body/...) as tainted at function entry, and returns
// every parameter's bare name for later per-parameter summary analysis.
func (a *Analyzer) seedParamSources(params *sitter.Node, state *State) []string {
	var names []string
	if params == nil {
		return names
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		p := params.Child(i)
		var nameNode, defaultNode *sitter.Node
		switch p.Kind() {
		case "identifier":
			nameNode = p
		case "typed_parameter":
			nameNode = p.Child(0)
		case "default_parameter", "typed_default_parameter":
			nameNode = p.ChildByFieldName("name")
			defaultNode = p.ChildByFieldName("value")
		}
		if nameNode == nil {
			continue
		}
		name := pyparse.NodeText(nameNode, a.Src)
		if name == "" || name == "self" || name == "cls" {
			continue
		}
		names = append(names, name)
		if src, ok := checkFastAPIParamDefault(defaultNode, a.Src, int(p.StartPosition().Row)+1); ok {
			state.MarkTainted(name, Info{Source: src})
		}
	}
	return names
}

func (a *Analyzer) analyzeBlock(block *sitter.Node, state *State) {
	if block == nil {
		return
	}
	for i := uint(0); i < block.ChildCount(); i++ {
		a.analyzeStmt(block.Child(i), state)
	}
}

// analyzeStmt mirrors intraprocedural.rs's analyze_stmt dispatch.
func (a *Analyzer) analyzeStmt(n *sitter.Node, state *State) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "expression_statement":
		if n.ChildCount() > 0 {
			a.analyzeAssignOrExpr(n.Child(0), state)
		}

	case "assignment", "augmented_assignment":
		a.analyzeAssignOrExpr(n, state)

	case "return_statement":
		if n.ChildCount() >= 2 {
			a.checkExprForSinks(n.Child(1), state)
		}

	case "if_statement":
		cond := n.ChildByFieldName("condition")
		a.checkExprForSinks(cond, state)
		branchStates := []*State{}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "block" {
				branch := state.Clone()
				a.analyzeBlock(c, branch)
				branchStates = append(branchStates, branch)
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "elif_clause":
				a.checkExprForSinks(c.ChildByFieldName("condition"), state)
				branch := state.Clone()
				a.analyzeBlock(c.ChildByFieldName("consequence"), branch)
				branchStates = append(branchStates, branch)
			case "else_clause":
				branch := state.Clone()
				a.analyzeBlock(childField(c, "body"), branch)
				branchStates = append(branchStates, branch)
			}
		}
		for _, b := range branchStates {
			state.Merge(b)
		}

	case "for_statement":
		iterExpr := n.ChildByFieldName("right")
		a.checkExprForSinks(iterExpr, state)
		if info, ok := IsExprTainted(iterExpr, a.Src, state); ok {
			target := GetAssignedName(n.ChildByFieldName("left"), a.Src)
			if target != "" {
				state.MarkTainted(target, info.ExtendPath(target))
			}
		}
		a.analyzeBlock(n.ChildByFieldName("body"), state)

	case "while_statement":
		a.checkExprForSinks(n.ChildByFieldName("condition"), state)
		a.analyzeBlock(n.ChildByFieldName("body"), state)

	case "with_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "with_clause":
				for j := uint(0); j < c.ChildCount(); j++ {
					item := c.Child(j)
					if item.Kind() == "with_item" {
						a.checkExprForSinks(item.ChildByFieldName("value"), state)
					}
				}
			case "block":
				a.analyzeBlock(c, state)
			}
		}

	case "try_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "block":
				a.analyzeBlock(c, state)
			case "except_clause":
				a.analyzeBlock(childField(c, "body"), state)
			case "finally_clause", "else_clause":
				a.analyzeBlock(childField(c, "body"), state)
			}
		}

	case "match_statement":
		a.checkExprForSinks(n.ChildByFieldName("subject"), state)
		if body := n.ChildByFieldName("body"); body != nil {
			for j := uint(0); j < body.ChildCount(); j++ {
				caseClause := body.Child(j)
				if caseClause.Kind() == "case_clause" {
					branch := state.Clone()
					a.analyzeBlock(caseClause.ChildByFieldName("consequence"), branch)
					state.Merge(branch)
				}
			}
		}

	case "function_definition":
		// Nested function: re-analyze with a clone of the outer state so its
		// own findings are attributed, without letting its locals leak out.
		inner := state.Clone()
		a.analyzeBlock(n.ChildByFieldName("body"), inner)

	default:
		for i := uint(0); i < n.ChildCount(); i++ {
			a.checkExprForSinks(n.Child(i), state)
		}
	}
}

func childField(n *sitter.Node, field string) *sitter.Node {
	return n.ChildByFieldName(field)
}

func (a *Analyzer) analyzeAssignOrExpr(n *sitter.Node, state *State) {
	if n.Kind() != "assignment" && n.Kind() != "augmented_assignment" {
		a.checkExprForSinks(n, state)
		return
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	a.checkExprForSinks(right, state)

	target := GetAssignedName(left, a.Src)
	if target == "" {
		return
	}
	if src, ok := CheckExprSource(right, a.Src); ok {
		state.MarkTainted(target, Info{Source: src})
		return
	}
	if info, ok := IsExprTainted(right, a.Src, state); ok {
		state.MarkTainted(target, info.ExtendPath(target))
		return
	}
	if calleeName, argc, isCall := callShape(right, a.Src); isCall {
		if a.Resolve != nil {
			if summary, ok := a.Resolve(calleeName); ok && a.callTaintsReturn(summary, right, state) {
				state.MarkTainted(target, Info{Source: Source{Kind: "function_return", Name: calleeName, Line: int(n.StartPosition().Row) + 1}})
				return
			}
		}
		_ = argc
	}
	state.Sanitize(target)
}

func callShape(n *sitter.Node, src []byte) (name string, argCount int, isCall bool) {
	if n == nil || n.Kind() != "call" {
		return "", 0, false
	}
	fn := n.ChildByFieldName("function")
	name = pyparse.NodeText(fn, src)
	args := n.ChildByFieldName("arguments")
	if args != nil {
		for i := uint(0); i < args.ChildCount(); i++ {
			switch args.Child(i).Kind() {
			case "(", ")", ",":
			default:
				argCount++
			}
		}
	}
	return name, argCount, true
}

func (a *Analyzer) callTaintsReturn(summary FunctionSummary, call *sitter.Node, state *State) bool {
	if summary.ReturnsTainted {
		return true
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	i := 0
	for c := uint(0); c < args.ChildCount(); c++ {
		arg := args.Child(c)
		switch arg.Kind() {
		case "(", ")", ",":
			continue
		}
		if info, ok := IsExprTainted(arg, a.Src, state); ok {
			_ = info
			if summary.ParamToReturn[paramIndexName(i)] {
				return true
			}
		}
		i++
	}
	return false
}

func paramIndexName(i int) string { return "$" + itoa(i) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	idx := len(buf)
	for n > 0 {
		idx--
		buf[idx] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[idx:])
}

// checkExprForSinks walks expr for call nodes whose callee matches the sink
// table, emitting a Finding when a dangerous argument is tainted (or, for
// sinks with no declared dangerous-argument indices, when any argument is
// tainted). Grounded on intraprocedural.rs's check_expr_for_sinks.
func (a *Analyzer) checkExprForSinks(expr *sitter.Node, state *State) {
	if expr == nil {
		return
	}
	if expr.Kind() == "call" {
		a.checkCallForSink(expr, state)
	}
	for i := uint(0); i < expr.ChildCount(); i++ {
		a.checkExprForSinks(expr.Child(i), state)
	}
}

func (a *Analyzer) checkCallForSink(call *sitter.Node, state *State) {
	fn := call.ChildByFieldName("function")
	name := pyparse.NodeText(fn, a.Src)
	bareName := name
	if idx := strings.LastIndexByte(bareName, '.'); idx >= 0 {
		bareName = bareName[idx+1:]
	}

	args := call.ChildByFieldName("arguments")
	var argNodes []*sitter.Node
	if args != nil {
		for c := uint(0); c < args.ChildCount(); c++ {
			switch args.Child(c).Kind() {
			case "(", ")", ",":
			default:
				argNodes = append(argNodes, args.Child(c))
			}
		}
	}

	info, ok := LookupSink(name)
	if !ok {
		info, ok = LookupSink(bareName)
	}
	if !ok {
		return
	}

	if info.VulnType == types.VulnSQLInjection && IsParameterizedQuery(name, len(argNodes)) {
		return
	}

	indices := info.DangerousArgs
	if len(indices) == 0 {
		for i := range argNodes {
			indices = append(indices, i)
		}
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(argNodes) {
			continue
		}
		taint, tainted := IsExprTainted(argNodes[idx], a.Src, state)
		if !tainted {
			continue
		}
		line := int(call.StartPosition().Row) + 1
		col := int(call.StartPosition().Column)
		a.findings = append(a.findings, Finding{
			Source:      taint.Source,
			SinkName:    name,
			SinkLine:    line,
			SinkCol:     col,
			FlowPath:    taint.FlowPathStrings(),
			VulnType:    info.VulnType,
			Severity:    info.Severity,
			File:        a.File,
			Remediation: info.Remediation,
		})
		return
	}
}

// computeSummary re-analyzes the function once per tainted-parameter
// hypothesis to learn param_to_return/param_to_sinks, following
// summaries.rs's compute_summary.
func (a *Analyzer) computeSummary(summary *FunctionSummary, paramNames []string, params *sitter.Node, body *sitter.Node) {
	if returnsSourceTainted(body, a.Src) {
		summary.ReturnsTainted = true
	}
	for i, p := range paramNames {
		state := NewState()
		state.MarkTainted(p, Info{Source: Source{Kind: "function_param", Name: p}})
		subAnalyzer := &Analyzer{File: a.File, Src: a.Src, Resolve: a.Resolve}
		subAnalyzer.analyzeBlock(body, state)
		if len(subAnalyzer.findings) > 0 {
			summary.HasSinks = true
			for _, f := range subAnalyzer.findings {
				summary.ParamToSinks[p] = append(summary.ParamToSinks[p], f.SinkName)
			}
		}
		if returnExprTaintedByParam(body, a.Src, p) {
			// Keyed by positional index: at a call site only argument
			// position is known, not the callee's declared parameter name.
			summary.ParamToReturn[paramIndexName(i)] = true
		}
	}
}

// returnsSourceTainted reports whether any return statement's expression
// is itself directly a taint source (a simplification carried over from
// summaries.rs's contains_taint_source: it does not trace whether a
// tainted parameter reaches the return, only whether the return expression
// is itself a source call/attribute).
func returnsSourceTainted(body *sitter.Node, src []byte) bool {
	found := false
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found {
			return
		}
		if n.Kind() == "return_statement" && n.ChildCount() >= 2 {
			if _, ok := CheckExprSource(n.Child(1), src); ok {
				found = true
				return
			}
		}
		if n.Kind() == "function_definition" && n != body {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return found
}

// returnExprTaintedByParam re-analyzes the body with only paramName seeded
// as tainted and checks whether any return expression carries that taint.
func returnExprTaintedByParam(body *sitter.Node, src []byte, paramName string) bool {
	state := NewState()
	state.MarkTainted(paramName, Info{Source: Source{Kind: "function_param", Name: paramName}})
	found := false
	var walk func(n *sitter.Node, st *State)
	walk = func(n *sitter.Node, st *State) {
		if n == nil || found {
			return
		}
		switch n.Kind() {
		case "return_statement":
			if n.ChildCount() >= 2 {
				if _, ok := IsExprTainted(n.Child(1), src, st); ok {
					found = true
				}
			}
			return
		case "assignment":
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			target := GetAssignedName(left, src)
			if target != "" {
				if info, ok := IsExprTainted(right, src, st); ok {
					st.MarkTainted(target, info)
				} else {
					st.Sanitize(target)
				}
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i), st)
			if found {
				return
			}
		}
	}
	walk(body, state)
	return found
}
