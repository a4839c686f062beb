package taint

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

// defUse is a single (name, line) pair, mirroring flow.rs's (String, usize)
// tuple used for both block.defs and block.uses.
type defUse struct {
	name string
	line int
}

// Block is one basic block of a function's control-flow graph: a straight-
// line run of statements with no internal branch. No Cfg/Block struct was
// retrieved from cytoscnpy/src/cfg (only flow.rs's reaching-definitions
// algorithm was), so the block-construction shape here — id, defs, uses,
// predecessors — is inferred from what flow.rs consumes, and the builder
// itself is an original implementation.
type Block struct {
	ID           int
	Defs         []defUse
	Uses         []defUse
	Predecessors []int
}

// Cfg is the control-flow graph of a single function body.
type Cfg struct {
	Blocks []*Block
}

// cfgBuilder constructs a Cfg by walking a function body's statement list,
// splitting a new block at every branch point (if/for/while/try/match) and
// wiring predecessor edges for each arm, grounded on the block/edge shape
// flow.rs's analyze_reaching_definitions walks.
type cfgBuilder struct {
	src    []byte
	blocks []*Block
}

// BuildCfg constructs the control-flow graph for one function's body block.
func BuildCfg(body *sitter.Node, src []byte) *Cfg {
	b := &cfgBuilder{src: src}
	entry := b.newBlock(nil)
	b.walkBlock(body, []int{entry.ID})
	return &Cfg{Blocks: b.blocks}
}

func (b *cfgBuilder) newBlock(preds []int) *Block {
	blk := &Block{ID: len(b.blocks), Predecessors: append([]int{}, preds...)}
	b.blocks = append(b.blocks, blk)
	return blk
}

// walkBlock threads a statement sequence through cur (the set of blocks
// whose exit reaches the first statement), returning the set of blocks
// whose exit reaches whatever follows this sequence.
func (b *cfgBuilder) walkBlock(block *sitter.Node, cur []int) []int {
	if block == nil {
		return cur
	}
	for i := uint(0); i < block.ChildCount(); i++ {
		cur = b.walkStmt(block.Child(i), cur)
	}
	return cur
}

func (b *cfgBuilder) currentLinear(preds []int) *Block {
	if len(preds) == 1 {
		if blk := b.blocks[preds[0]]; len(blk.Predecessors) > 0 || blk.ID == 0 {
			return blk
		}
	}
	return b.newBlock(preds)
}

func (b *cfgBuilder) walkStmt(n *sitter.Node, preds []int) []int {
	if n == nil {
		return preds
	}
	switch n.Kind() {
	case "if_statement":
		cond := n.ChildByFieldName("condition")
		head := b.currentLinear(preds)
		b.recordUses(head, cond)

		var exits []int
		hasElse := false
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "block" {
				branchStart := b.newBlock([]int{head.ID})
				out := b.walkBlock(c, []int{branchStart.ID})
				exits = append(exits, out...)
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "elif_clause":
				b.recordUses(head, c.ChildByFieldName("condition"))
				branchStart := b.newBlock([]int{head.ID})
				out := b.walkBlock(c.ChildByFieldName("consequence"), []int{branchStart.ID})
				exits = append(exits, out...)
			case "else_clause":
				hasElse = true
				branchStart := b.newBlock([]int{head.ID})
				out := b.walkBlock(c.ChildByFieldName("body"), []int{branchStart.ID})
				exits = append(exits, out...)
			}
		}
		if !hasElse {
			exits = append(exits, head.ID)
		}
		return exits

	case "for_statement", "while_statement":
		head := b.currentLinear(preds)
		if iter := n.ChildByFieldName("right"); iter != nil {
			b.recordUses(head, iter)
		}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			b.recordUses(head, cond)
		}
		if left := n.ChildByFieldName("left"); left != nil && n.Kind() == "for_statement" {
			b.recordDef(head, left)
		}
		loopStart := b.newBlock([]int{head.ID})
		bodyOut := b.walkBlock(n.ChildByFieldName("body"), []int{loopStart.ID})
		// Back edge: the loop may run again, so its own exit feeds its start.
		loopStart.Predecessors = append(loopStart.Predecessors, bodyOut...)
		after := []int{head.ID}
		after = append(after, bodyOut...)
		return after

	case "try_statement":
		head := b.currentLinear(preds)
		tryStart := b.newBlock([]int{head.ID})
		var tryOut []int
		var handlerOut []int
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "block":
				tryOut = b.walkBlock(c, []int{tryStart.ID})
			case "except_clause":
				hStart := b.newBlock([]int{tryStart.ID})
				out := b.walkBlock(c.ChildByFieldName("body"), []int{hStart.ID})
				handlerOut = append(handlerOut, out...)
			}
		}
		exits := append([]int{}, tryOut...)
		exits = append(exits, handlerOut...)
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() == "finally_clause" || c.Kind() == "else_clause" {
				finStart := b.newBlock(exits)
				exits = b.walkBlock(c.ChildByFieldName("body"), []int{finStart.ID})
			}
		}
		return exits

	case "match_statement":
		head := b.currentLinear(preds)
		b.recordUses(head, n.ChildByFieldName("subject"))
		var exits []int
		if body := n.ChildByFieldName("body"); body != nil {
			for i := uint(0); i < body.ChildCount(); i++ {
				caseClause := body.Child(i)
				if caseClause.Kind() != "case_clause" {
					continue
				}
				caseStart := b.newBlock([]int{head.ID})
				b.recordPatternDefs(caseStart, caseClause.ChildByFieldName("pattern"))
				out := b.walkBlock(caseClause.ChildByFieldName("consequence"), []int{caseStart.ID})
				exits = append(exits, out...)
			}
		}
		if len(exits) == 0 {
			exits = []int{head.ID}
		}
		return exits

	case "assignment", "augmented_assignment":
		blk := b.currentLinear(preds)
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		b.recordUses(blk, right)
		b.recordDef(blk, left)
		return []int{blk.ID}

	case "return_statement", "expression_statement":
		blk := b.currentLinear(preds)
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.Kind() != "return" {
				b.recordUses(blk, c)
			}
		}
		return []int{blk.ID}

	default:
		blk := b.currentLinear(preds)
		b.recordUses(blk, n)
		return []int{blk.ID}
	}
}

// recordDef walks an assignment target, adding every bound identifier as a
// definition of the current block at the target's own line.
func (b *cfgBuilder) recordDef(blk *Block, target *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		blk.Defs = append(blk.Defs, defUse{name: pyparse.NodeText(target, b.src), line: int(target.StartPosition().Row) + 1})
	case "pattern_list", "tuple_pattern", "tuple", "list_pattern", "list":
		for i := uint(0); i < target.ChildCount(); i++ {
			b.recordDef(blk, target.Child(i))
		}
	}
}

// recordPatternDefs records every capture name bound by a match-case
// pattern as a definition at the pattern's line.
func (b *cfgBuilder) recordPatternDefs(blk *Block, pattern *sitter.Node) {
	if pattern == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier":
			name := pyparse.NodeText(n, b.src)
			if name != "_" {
				blk.Defs = append(blk.Defs, defUse{name: name, line: int(n.StartPosition().Row) + 1})
			}
		case "keyword_pattern":
			if v := n.ChildByFieldName("value"); v != nil {
				walk(v)
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(pattern)
}

// recordUses walks expr collecting every identifier read, excluding the
// bound name of an assignment target (callers only pass expression subtrees,
// never targets, into recordUses).
func (b *cfgBuilder) recordUses(blk *Block, expr *sitter.Node) {
	if expr == nil {
		return
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "identifier" {
			blk.Uses = append(blk.Uses, defUse{name: pyparse.NodeText(n, b.src), line: int(n.StartPosition().Row) + 1})
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(expr)
}

// FlowResult is the fixed-point output of reaching-definitions analysis,
// grounded on cytoscnpy/src/cfg/flow.rs's FlowResult/BlockFlow.
type FlowResult struct {
	blockIn  map[int]map[defUse]bool
	blockOut map[int]map[defUse]bool
	cfg      *Cfg
}

// AnalyzeReachingDefinitions runs the standard iterative worklist
// reaching-definitions algorithm (IN[B] = union of predecessor OUT sets,
// OUT[B] = GEN[B] ∪ (IN[B] − KILL[B])), a direct port of flow.rs's
// analyze_reaching_definitions.
func AnalyzeReachingDefinitions(cfg *Cfg) *FlowResult {
	fr := &FlowResult{
		blockIn:  make(map[int]map[defUse]bool),
		blockOut: make(map[int]map[defUse]bool),
		cfg:      cfg,
	}
	for _, blk := range cfg.Blocks {
		fr.blockIn[blk.ID] = make(map[defUse]bool)
		fr.blockOut[blk.ID] = make(map[defUse]bool)
	}

	changed := true
	for changed {
		changed = false
		for _, blk := range cfg.Blocks {
			newIn := make(map[defUse]bool)
			for _, pred := range blk.Predecessors {
				for d := range fr.blockOut[pred] {
					newIn[d] = true
				}
			}

			localDefs := make(map[string]bool, len(blk.Defs))
			for _, d := range blk.Defs {
				localDefs[d.name] = true
			}

			newOut := make(map[defUse]bool)
			for _, d := range blk.Defs {
				newOut[d] = true
			}
			for d := range newIn {
				if !localDefs[d.name] {
					newOut[d] = true
				}
			}

			if !setEqual(fr.blockIn[blk.ID], newIn) || !setEqual(fr.blockOut[blk.ID], newOut) {
				fr.blockIn[blk.ID] = newIn
				fr.blockOut[blk.ID] = newOut
				changed = true
			}
		}
	}
	return fr
}

func setEqual(a, b map[defUse]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// IsDefUsed reports whether the definition of name at line reaches some
// use of name, either later in its own block or via a block whose reaching
// set includes it, mirroring flow.rs's FlowResult::is_def_used.
func (fr *FlowResult) IsDefUsed(name string, line int) bool {
	target := defUse{name: name, line: line}
	for _, blk := range fr.cfg.Blocks {
		hasDef := false
		for _, d := range blk.Defs {
			if d == target {
				hasDef = true
				break
			}
		}
		if hasDef {
			for _, u := range blk.Uses {
				if u.name == name && u.line > line {
					return true
				}
			}
		}
		if fr.blockIn[blk.ID][target] {
			for _, u := range blk.Uses {
				if u.name == name {
					return true
				}
			}
		}
	}
	return false
}
