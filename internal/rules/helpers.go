package rules

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

func callFunction(n *sitter.Node) *sitter.Node {
	if n.Kind() != "call" {
		return nil
	}
	return n.ChildByFieldName("function")
}

func callee(n *sitter.Node, src []byte) string {
	fn := callFunction(n)
	if fn == nil {
		return ""
	}
	return pyparse.NodeText(fn, src)
}

func calleeBareName(n *sitter.Node, src []byte) string {
	name := callee(n, src)
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// callArgs returns a call's positional argument nodes, skipping "(" ")" ",".
func callArgs(n *sitter.Node) []*sitter.Node {
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		c := args.Child(i)
		switch c.Kind() {
		case "(", ")", ",":
		default:
			out = append(out, c)
		}
	}
	return out
}

func nodeArg(args []*sitter.Node, idx int) *sitter.Node {
	if idx < 0 || idx >= len(args) {
		return nil
	}
	return args[idx]
}

func isLiteral(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "string", "integer", "float", "true", "false", "none":
		return true
	}
	return false
}

func keywordArgValue(args []*sitter.Node, name string, src []byte) *sitter.Node {
	for _, a := range args {
		if a.Kind() != "keyword_argument" {
			continue
		}
		k := a.ChildByFieldName("name")
		if k != nil && pyparse.NodeText(k, src) == name {
			return a.ChildByFieldName("value")
		}
	}
	return nil
}

func location(n *sitter.Node) (line, col int) {
	p := n.StartPosition()
	return int(p.Row) + 1, int(p.Column)
}
