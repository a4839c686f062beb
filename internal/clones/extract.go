// Package clones implements the Clone Detection Engine:
// subtree extraction, Type1/2/3 normalization, LSH candidate pruning, tree-
// edit-distance similarity, union-find grouping, and fix-confidence
// scoring.
package clones

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// Subtree is an extracted function/async-function/class/method body
// eligible for clone matching, carrying the AST node alongside the
// CloneInstance metadata the rest of the pipeline reports.
type Subtree struct {
	Instance types.CloneInstance
	Node     *sitter.Node
	Src      []byte
}

// minNodes is the smallest subtree (by descendant node count) worth
// comparing; trivial one-liners produce too many false positives.
const minNodes = 8

// ExtractFile walks pf's AST and returns every function, async function,
// class, and method body at or above minNodes in size.
func ExtractFile(pf *pyparse.ParsedFile) []Subtree {
	var out []Subtree
	var classDepth int

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "function_definition":
			kind := types.NodeFunction
			if classDepth > 0 {
				kind = types.NodeMethod
			}
			addSubtree(&out, pf, n, kind)
		case "class_definition":
			addSubtree(&out, pf, n, types.NodeClass)
			classDepth++
			defer func() { classDepth-- }()
		}
		// async function_definition nests an "async" keyword sibling; the
		// tree-sitter-python grammar still reports the node kind as
		// "function_definition" with an "async" leading token, so the
		// NodeAsyncFunction distinction is derived from source text.
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(pf.Root)
	return out
}

func addSubtree(out *[]Subtree, pf *pyparse.ParsedFile, n *sitter.Node, kind types.NodeKind) {
	if countNodes(n) < minNodes {
		return
	}
	if kind == types.NodeFunction || kind == types.NodeMethod {
		if isAsyncDef(n, pf.Source) {
			if kind == types.NodeFunction {
				kind = types.NodeAsyncFunction
			}
		}
	}
	nameNode := n.ChildByFieldName("name")
	name := pyparse.NodeText(nameNode, pf.Source)
	startPos, endPos := n.StartPosition(), n.EndPosition()
	*out = append(*out, Subtree{
		Instance: types.CloneInstance{
			File:      pf.Path,
			StartLine: int(startPos.Row) + 1,
			EndLine:   int(endPos.Row) + 1,
			StartByte: uint32(n.StartByte()),
			EndByte:   uint32(n.EndByte()),
			Name:      name,
			NodeKind:  kind,
		},
		Node: n,
		Src:  pf.Source,
	})
}

func isAsyncDef(n *sitter.Node, src []byte) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	for i := uint(0); i < parent.ChildCount(); i++ {
		c := parent.Child(i)
		if c == n {
			break
		}
		if c.Kind() == "async" {
			return true
		}
	}
	return false
}

func countNodes(n *sitter.Node) int {
	count := 1
	for i := uint(0); i < n.ChildCount(); i++ {
		count += countNodes(n.Child(i))
	}
	return count
}
