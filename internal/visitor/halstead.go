package visitor

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// operandLeafKinds are terminal node kinds counted as Halstead operands;
// everything else at the leaf level (keywords, punctuation, symbols) is an
// operator. Distinct operators are counted by node kind (every "+" is the
// same operator); distinct operands are counted by literal text (every
// spelling of an identifier or literal is its own operand).
var operandLeafKinds = map[string]bool{
	"identifier": true, "integer": true, "float": true, "string": true,
	"true": true, "false": true, "none": true, "ellipsis": true,
}

// nonTokenKinds are container/leaf kinds that contribute no Halstead token
// of their own (their children are walked instead, or they're pure
// whitespace/comment artifacts already excluded by the grammar).
var nonTokenKinds = map[string]bool{
	"comment": true, "string_content": true, "escape_sequence": true,
}

// computeHalstead walks the parsed file and tallies Halstead base counts
// (distinct/total operators and operands), metrics
// section.
func computeHalstead(root *sitter.Node, src []byte) types.HalsteadMetrics {
	operatorKinds := make(map[string]bool)
	operandTexts := make(map[string]bool)
	var totalOps, totalOperands int

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.ChildCount() == 0 {
			kind := n.Kind()
			if nonTokenKinds[kind] || kind == "" {
				return
			}
			if operandLeafKinds[kind] {
				operandTexts[text(n, src)] = true
				totalOperands++
				return
			}
			operatorKinds[kind] = true
			totalOps++
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	return types.HalsteadMetrics{
		N1:      len(operatorKinds),
		N2:      len(operandTexts),
		TotalN1: totalOps,
		TotalN2: totalOperands,
	}
}
