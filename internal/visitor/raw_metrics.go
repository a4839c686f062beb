package visitor

import (
	"strings"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// computeRawMetrics classifies each physical line of src into blank,
// full-line comment, multi-line-string continuation, or source line, in the
// style of line-based raw-metrics tools (radon's raw module), feeding
// the rest of the per-file raw metrics.
func computeRawMetrics(src []byte) types.RawMetrics {
	lines := strings.Split(string(src), "\n")
	var m types.RawMetrics
	m.LOC = len(lines)
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		m.LOC--
	}

	var openTriple string // "" when not inside a triple-quoted string
	for i, raw := range lines {
		if i == m.LOC {
			break
		}
		trimmed := strings.TrimSpace(raw)

		if openTriple != "" {
			m.Multi++
			if closesTriple(trimmed, openTriple) {
				openTriple = ""
			}
			continue
		}

		if trimmed == "" {
			m.Blank++
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			m.Comment++
			continue
		}

		if q := opensTriple(trimmed); q != "" {
			openTriple = q
		}
	}

	m.SLOC = m.LOC - m.Blank - m.Comment - m.Multi
	if m.SLOC < 0 {
		m.SLOC = 0
	}
	return m
}

// opensTriple reports whether the line starts an unterminated triple-quoted
// string, returning the quote style ("'''" or `"""`) or "" if the line's
// triple-quoted strings (if any) are self-contained.
func opensTriple(line string) string {
	for _, q := range []string{`"""`, "'''"} {
		idx := strings.Index(line, q)
		if idx < 0 {
			continue
		}
		rest := line[idx+3:]
		if strings.Contains(rest, q) {
			return ""
		}
		return q
	}
	return ""
}

func closesTriple(line, quote string) bool {
	return strings.Contains(line, quote)
}
