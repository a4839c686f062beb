package pyparse

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// LineIndex maps a byte offset to a 1-indexed line via binary search over
// newline positions, and the invariant that
// line_index is monotone non-decreasing and equals 1 at offset 0.
type LineIndex struct {
	newlineOffsets []int // byte offset of every '\n' in the source
	length         int
}

// NewLineIndex builds a LineIndex over src.
func NewLineIndex(src []byte) *LineIndex {
	li := &LineIndex{length: len(src)}
	for i, b := range src {
		if b == '\n' {
			li.newlineOffsets = append(li.newlineOffsets, i)
		}
	}
	return li
}

// Line returns the 1-indexed line containing byte offset.
func (li *LineIndex) Line(offset int) int {
	if offset < 0 {
		offset = 0
	}
	// newlineOffsets[i] holds the offset of the i-th '\n'; the number of
	// newlines strictly before `offset` is the count of entries < offset,
	// and line = that count + 1.
	idx := sort.Search(len(li.newlineOffsets), func(i int) bool {
		return li.newlineOffsets[i] >= offset
	})
	return idx + 1
}

// ColumnOnLine returns the 0-indexed column of offset within its line.
func (li *LineIndex) ColumnOnLine(offset int) int {
	line := li.Line(offset)
	if line == 1 {
		return offset
	}
	lineStart := li.newlineOffsets[line-2] + 1
	return offset - lineStart
}

// ParsedFile is the Parser Façade's success output.
type ParsedFile struct {
	Path       string
	Source     []byte // owned once, shared by every pass over this file
	Tree       *sitter.Tree
	Root       *sitter.Node
	Lines      *LineIndex
	LineMap    *NotebookLineMap // non-nil only for re-projected notebooks
}

// Close releases the underlying tree-sitter tree.
func (pf *ParsedFile) Close() {
	if pf.Tree != nil {
		pf.Tree.Close()
	}
}

var (
	pythonLanguageOnce sync.Once
	pythonLanguage     *sitter.Language
)

func pythonLang() *sitter.Language {
	pythonLanguageOnce.Do(func() {
		pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())
	})
	return pythonLanguage
}

// ParserPool hands out tree-sitter parsers for concurrent per-file use; each
// worker in a chunk gets its own parser since *sitter.Parser is not safe for
// concurrent Parse calls.
type ParserPool struct {
	mu   sync.Mutex
	pool []*sitter.Parser
}

// NewParserPool constructs an empty pool; parsers are created lazily on Get.
func NewParserPool() *ParserPool {
	return &ParserPool{}
}

// Get returns a ready-to-use parser, reusing one from the pool if available.
func (pp *ParserPool) Get() (*sitter.Parser, error) {
	pp.mu.Lock()
	if n := len(pp.pool); n > 0 {
		p := pp.pool[n-1]
		pp.pool = pp.pool[:n-1]
		pp.mu.Unlock()
		return p, nil
	}
	pp.mu.Unlock()

	p := sitter.NewParser()
	if err := p.SetLanguage(pythonLang()); err != nil {
		return nil, fmt.Errorf("set python language: %w", err)
	}
	return p, nil
}

// Put returns a parser to the pool for reuse.
func (pp *ParserPool) Put(p *sitter.Parser) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.pool = append(pp.pool, p)
}

// ParseFile reads and parses one file, returning a recoverable *types.ParseError
// on any failure rather than aborting the run.
func ParseFile(pool *ParserPool, path string) (*ParsedFile, *types.ParseError) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ParseError{File: path, Error: fmt.Sprintf("unreadable file: %v", err)}
	}
	return ParseSource(pool, path, src)
}

// ParseSource parses already-loaded source bytes (used for notebook
// re-projection, where the caller supplies concatenated cell code instead of
// a file's raw bytes).
func ParseSource(pool *ParserPool, path string, src []byte) (*ParsedFile, *types.ParseError) {
	if !utf8.Valid(src) {
		return nil, &types.ParseError{File: path, Error: "content is not valid UTF-8"}
	}

	parser, err := pool.Get()
	if err != nil {
		return nil, &types.ParseError{File: path, Error: fmt.Sprintf("parser init failed: %v", err)}
	}
	defer pool.Put(parser)

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, &types.ParseError{File: path, Error: "parser returned no tree"}
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, &types.ParseError{File: path, Error: "parser returned no root node"}
	}

	lines := NewLineIndex(src)

	if root.HasError() {
		line := firstErrorLine(root, lines)
		msg := fmt.Sprintf("syntax error at line %d", line)
		// Tree-sitter is error-tolerant: we still keep the partial tree for
		// best-effort analysis, but the caller surfaces a parse-error record
		// alongside it when HasErrorRecord is consulted.
		return &ParsedFile{Path: path, Source: src, Tree: tree, Root: root, Lines: lines},
			&types.ParseError{File: path, Error: msg, Line: line}
	}

	return &ParsedFile{Path: path, Source: src, Tree: tree, Root: root, Lines: lines}, nil
}

// firstErrorLine walks the tree for the first ERROR or MISSING node and
// returns its 1-indexed line, or 0 if none is found.
func firstErrorLine(root *sitter.Node, lines *LineIndex) int {
	var found int
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != 0 {
			return
		}
		if n.Kind() == "ERROR" {
			found = lines.Line(int(n.StartByte()))
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
			if found != 0 {
				return
			}
		}
	}
	walk(root)
	return found
}

// NodeText returns the source slice spanned by n.
func NodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(src)) || end > uint(len(src)) || start > end {
		return ""
	}
	return string(src[start:end])
}

// ModulePath computes the dotted module path from analysisRoot to path,
// minus extension; for __init__ files the parent directory is the module
// ("Module-path encoding").
func ModulePath(analysisRoot, path string) string {
	rel := relOrSelf(analysisRoot, path)
	rel = strings.TrimSuffix(rel, ".py")
	rel = strings.TrimSuffix(rel, ".ipynb")
	parts := strings.Split(filepathToSlash(rel), "/")
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	cleaned := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, ".")
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
