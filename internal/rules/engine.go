// Package rules implements the Rule Engine: an ordered walk
// of stateless rule visitors over one file's AST, producing Findings.
package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/suppress"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// Context carries the per-file state a Rule needs beyond the node itself.
type Context struct {
	File      string
	Src       []byte
	Lines     *pyparse.LineIndex
	IsTest    bool
	lineCache map[int]string
}

func NewContext(file string, src []byte, lines *pyparse.LineIndex, isTest bool) *Context {
	return &Context{File: file, Src: src, Lines: lines, IsTest: isTest, lineCache: make(map[int]string)}
}

func (c *Context) lineText(n int) string {
	if s, ok := c.lineCache[n]; ok {
		return s
	}
	s := lineOfSource(c.Src, n)
	c.lineCache[n] = s
	return s
}

func lineOfSource(src []byte, lineNo int) string {
	line := 1
	start := 0
	for i, b := range src {
		if line == lineNo {
			start = i
			break
		}
		if b == '\n' {
			line++
		}
	}
	if line != lineNo {
		return ""
	}
	end := start
	for end < len(src) && src[end] != '\n' {
		end++
	}
	return string(src[start:end])
}

func (c *Context) text(n *sitter.Node) string { return pyparse.NodeText(n, c.Src) }

// Rule is a stateless check invoked on every node whose kind is in Kinds
// ("" matches every node kind).
type Rule struct {
	ID              string
	Category        string
	DefaultSeverity types.Severity
	Kinds           []string
	Check           func(n *sitter.Node, ctx *Context, emit func(line, col int, msg string, sev types.Severity))
}

// Engine walks an AST once, dispatching each node to every registered rule
// whose Kinds set matches, then drops findings suppressed on their line.
type Engine struct {
	byKind    map[string][]*Rule
	wildcards []*Rule
}

func NewEngine(rs []*Rule) *Engine {
	e := &Engine{byKind: make(map[string][]*Rule)}
	for _, r := range rs {
		if len(r.Kinds) == 0 {
			e.wildcards = append(e.wildcards, r)
			continue
		}
		for _, k := range r.Kinds {
			e.byKind[k] = append(e.byKind[k], r)
		}
	}
	return e
}

// Run walks root once and returns every non-suppressed finding.
func (e *Engine) Run(root *sitter.Node, ctx *Context) []types.Finding {
	var findings []types.Finding

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		rules := append(append([]*Rule{}, e.wildcards...), e.byKind[n.Kind()]...)
		for _, r := range rules {
			r.Check(n, ctx, func(line, col int, msg string, sev types.Severity) {
				if suppress.Parse(ctx.lineText(line)).SuppressesRule(r.ID) {
					return
				}
				findings = append(findings, types.Finding{
					RuleID: r.ID, Category: r.Category, Message: msg,
					File: ctx.File, Line: line, Col: col, Severity: sev,
				})
			})
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return findings
}

// AllRules returns the full default rule catalog (families).
// th supplies the structural quality-rule thresholds (max args, max lines,
// max nesting); the metric-based quality checks (complexity, cognitive,
// LCOM4) are run separately via MetricFindings since they consume the
// Visitor's already-computed FunctionMetrics instead of walking the AST.
func AllRules(th QualityThresholds) []*Rule {
	var all []*Rule
	all = append(all, executionRules()...)
	all = append(all, deserializationRules()...)
	all = append(all, cryptoRules()...)
	all = append(all, networkRules()...)
	all = append(all, filesystemRules()...)
	all = append(all, performanceRules()...)
	all = append(all, qualityRules(th)...)
	return all
}
