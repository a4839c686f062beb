package heuristics

import "strings"

// SourceLines is a LineSource backed by each file's full text, split lazily
// once per file and cached; used by the Aggregator, which already holds
// every file's bytes from the Parser Façade pass.
type SourceLines struct {
	byFile map[string][]string
}

// NewSourceLines builds a SourceLines from a path->source map.
func NewSourceLines(sources map[string][]byte) *SourceLines {
	sl := &SourceLines{byFile: make(map[string][]string, len(sources))}
	for path, src := range sources {
		sl.byFile[path] = strings.Split(string(src), "\n")
	}
	return sl
}

// Line returns the 1-indexed line's text, or "" if out of range.
func (sl *SourceLines) Line(filePath string, lineNo int) string {
	lines, ok := sl.byFile[filePath]
	if !ok || lineNo < 1 || lineNo > len(lines) {
		return ""
	}
	return lines[lineNo-1]
}
