// Package suppress parses the two inline suppression syntaxes shared by the
// Heuristic Scorer, Rule Engine, and Secret Scanner: a
// `# pragma: no <tool>[, <tool> ...]` comment silences a named tool (or
// every tool, via `all`), and a `# noqa[: CODE, ...]` comment silences the
// Rule Engine for specific rule IDs (or every rule, bare).
package suppress

import (
	"regexp"
	"strings"
)

var (
	pragmaPattern = regexp.MustCompile(`#\s*pragma:\s*no\s+([a-zA-Z0-9_,\-\s]+)`)
	noqaPattern   = regexp.MustCompile(`#\s*noqa\b(:\s*([A-Za-z0-9_\-,\s]*))?`)
)

// Line is the parsed suppression directives present on one source line.
type Line struct {
	PragmaTools map[string]bool // lowercase tool names, or {"all": true}
	NoqaBare    bool            // "# noqa" with no codes: suppresses every rule
	NoqaCodes   []string        // "# noqa: CODE1, CODE2"
}

// Parse extracts suppression directives from a raw source line.
func Parse(line string) Line {
	var out Line
	if m := pragmaPattern.FindStringSubmatch(line); m != nil {
		out.PragmaTools = make(map[string]bool)
		for _, tool := range strings.Split(m[1], ",") {
			tool = strings.ToLower(strings.TrimSpace(tool))
			if tool != "" {
				out.PragmaTools[tool] = true
			}
		}
	}
	if m := noqaPattern.FindStringSubmatch(line); m != nil {
		codes := strings.TrimSpace(m[2])
		if codes == "" {
			out.NoqaBare = true
		} else {
			for _, code := range strings.Split(codes, ",") {
				code = strings.TrimSpace(code)
				if code != "" {
					out.NoqaCodes = append(out.NoqaCodes, code)
				}
			}
		}
	}
	return out
}

// SuppressesTool reports whether this line's pragma silences the named
// tool (e.g. "dead-code", "secrets"), including the "all" wildcard.
func (l Line) SuppressesTool(tool string) bool {
	if l.PragmaTools == nil {
		return false
	}
	return l.PragmaTools["all"] || l.PragmaTools[strings.ToLower(tool)]
}

// SuppressesRule reports whether this line's noqa/pragma silences the given
// rule ID. A bare `# noqa` silences every rule; `# noqa: CODE` matches by
// exact code or by leading-prefix wildcard (`CODE*` in the comment, or
// ruleID having CODE as a dash-joined prefix).
func (l Line) SuppressesRule(ruleID string) bool {
	if l.SuppressesTool("rules") || l.SuppressesTool("all") {
		return true
	}
	if l.NoqaBare {
		return true
	}
	for _, code := range l.NoqaCodes {
		if code == ruleID {
			return true
		}
		if strings.HasSuffix(code, "*") && strings.HasPrefix(ruleID, strings.TrimSuffix(code, "*")) {
			return true
		}
		if strings.HasPrefix(ruleID, code+"-") {
			return true
		}
	}
	return false
}
