package clones

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// NormalizedNode is a normalized AST node: its syntactic kind plus an
// abstracted label (identifier text, VAR_N, or CONST), grounded on
// cytoscnpy/src/clones/normalizer.rs's NormalizedNode shape.
type NormalizedNode struct {
	Kind     string
	Label    string
	HasLabel bool
	Children []*NormalizedNode
}

// KindSequence returns the flattened, depth-first sequence of node kinds,
// used both for LSH shingling and tree-edit-distance comparison.
func (n *NormalizedNode) KindSequence() []string {
	var out []string
	n.collectKinds(&out)
	return out
}

func (n *NormalizedNode) collectKinds(out *[]string) {
	*out = append(*out, n.Kind)
	for _, c := range n.Children {
		c.collectKinds(out)
	}
}

// Flatten returns the depth-first (kind,label) sequence used by the tree
// edit distance calculation.
func (n *NormalizedNode) Flatten() []LabeledNode {
	var out []LabeledNode
	n.collectFlat(&out)
	return out
}

func (n *NormalizedNode) collectFlat(out *[]LabeledNode) {
	*out = append(*out, LabeledNode{Kind: n.Kind, Label: n.Label, HasLabel: n.HasLabel})
	for _, c := range n.Children {
		c.collectFlat(out)
	}
}

// LabeledNode is one entry of a flattened normalized tree.
type LabeledNode struct {
	Kind     string
	Label    string
	HasLabel bool
}

// Normalizer configures which abstractions are applied, selected per
// clone type exactly as cytoscnpy/src/clones/normalizer.rs's
// Normalizer::for_clone_type does.
type Normalizer struct {
	NormalizeIdentifiers bool
	NormalizeLiterals    bool
}

// ForCloneType returns the normalizer policy for one clone type: Type1
// preserves every identifier and literal verbatim, Type2 abstracts both to
// VAR_N/CONST, Type3 reuses Type2's abstraction (its extra canonical-
// ordering step is applied separately by the caller on bag-of-shingles
// comparisons rather than on the tree itself, since Go's clone pipeline
// classifies Type3 by falling through Type2's threshold rather than
// resorting node order).
func ForCloneType(t types.CloneType) Normalizer {
	switch t {
	case types.CloneType1:
		return Normalizer{}
	default:
		return Normalizer{NormalizeIdentifiers: true, NormalizeLiterals: true}
	}
}

// leafLabelKinds are the node kinds whose source text becomes the node's
// label (identifiers and literal tokens); every other kind is structural
// and carries no label.
var leafLabelKinds = map[string]bool{
	"identifier": true, "string": true, "integer": true, "float": true,
	"true": true, "false": true, "none": true,
}

// Normalize converts n into a NormalizedTree per the normalizer's policy.
func (nz Normalizer) Normalize(n *sitter.Node, src []byte) *NormalizedNode {
	varMap := make(map[string]int)
	counter := 0
	return nz.normalizeNode(n, src, varMap, &counter)
}

func (nz Normalizer) normalizeNode(n *sitter.Node, src []byte, varMap map[string]int, counter *int) *NormalizedNode {
	out := &NormalizedNode{Kind: n.Kind()}

	if leafLabelKinds[n.Kind()] {
		text := nodeText(n, src)
		out.HasLabel = true
		out.Label = nz.abstractLabel(n.Kind(), text, varMap, counter)
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if isPunctuationLeaf(c) {
			continue
		}
		out.Children = append(out.Children, nz.normalizeNode(c, src, varMap, counter))
	}
	return out
}

func (nz Normalizer) abstractLabel(kind, text string, varMap map[string]int, counter *int) string {
	if !nz.NormalizeIdentifiers {
		return text
	}
	if isLiteralKind(kind) {
		if nz.NormalizeLiterals {
			return "CONST"
		}
		return text
	}
	idx, ok := varMap[text]
	if !ok {
		idx = *counter
		varMap[text] = idx
		*counter++
	}
	return "VAR_" + strconv.Itoa(idx)
}

func isLiteralKind(kind string) bool {
	switch kind {
	case "string", "integer", "float", "true", "false", "none":
		return true
	}
	return false
}

// isPunctuationLeaf skips childless tokens that carry no semantic weight
// for clone comparison: parens, commas, colons, operators. Keyword leaves
// (return/if/else/...) and the labeled literal kinds are kept since their
// kind (and, for literals, their abstracted label) is structurally
// meaningful.
func isPunctuationLeaf(n *sitter.Node) bool {
	if n.ChildCount() > 0 {
		return false
	}
	k := n.Kind()
	if k == "comment" {
		return true
	}
	for _, r := range k {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' {
			return false
		}
	}
	return strings.TrimSpace(k) != ""
}

func nodeText(n *sitter.Node, src []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(src)) || end > uint(len(src)) || start > end {
		return ""
	}
	return string(src[start:end])
}
