package rules

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// filesystemRules implements the filesystem rule family.
func filesystemRules() []*Rule {
	return []*Rule{
		{
			ID: "DANGER-MKTEMP", Category: "filesystem", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if callee(n, ctx.Src) != "tempfile.mktemp" {
					return
				}
				line, col := location(n)
				emit(line, col, "tempfile.mktemp() has a TOCTOU race; use mkstemp/NamedTemporaryFile", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-PATH-TRAVERSAL-JOIN", Category: "filesystem", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if callee(n, ctx.Src) != "os.path.join" {
					return
				}
				args := callArgs(n)
				for _, a := range args {
					if isLiteral(a) {
						continue
					}
					if strings.Contains(ctx.text(a), "request") {
						line, col := location(n)
						emit(line, col, "os.path.join() with a request-derived component allows path traversal without containment checks", types.SeverityMedium)
						return
					}
				}
			},
		},
		{
			ID: "DANGER-ARCHIVE-EXTRACT-NO-CONTAINMENT", Category: "filesystem", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if calleeBareName(n, ctx.Src) != "extractall" {
					return
				}
				line, col := location(n)
				emit(line, col, "extractall() without per-member path containment allows archive ('zip slip') traversal", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-BAD-PERMISSIONS", Category: "filesystem", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := calleeBareName(n, ctx.Src)
				if name != "chmod" && name != "fchmod" {
					return
				}
				args := callArgs(n)
				if len(args) < 2 {
					return
				}
				mode := ctx.text(args[len(args)-1])
				if mode != "0o777" && mode != "0o666" && mode != "0777" && mode != "0666" {
					return
				}
				line, col := location(n)
				emit(line, col, "chmod("+mode+") grants world write access", types.SeverityMedium)
			},
		},
	}
}
