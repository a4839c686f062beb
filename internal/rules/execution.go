package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// executionRules implements the "Code execution & injection" rule
// family: dynamic-eval, shell-spawn/subprocess, and pty.spawn calls.
func executionRules() []*Rule {
	return []*Rule{
		{
			ID: "DANGER-EVAL-EXEC", Category: "execution", DefaultSeverity: types.SeverityHigh,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := calleeBareName(n, ctx.Src)
				if name != "eval" && name != "exec" {
					return
				}
				line, col := location(n)
				sev := types.SeverityHigh
				args := callArgs(n)
				if len(args) > 0 && !isLiteral(nodeArg(args, 0)) {
					sev = types.SeverityCritical
				}
				emit(line, col, "dynamic "+name+"() of non-constant input enables arbitrary code execution", sev)
			},
		},
		{
			ID: "DANGER-OS-SYSTEM", Category: "execution", DefaultSeverity: types.SeverityHigh,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if name != "os.system" && name != "os.popen" && name != "subprocess.getoutput" {
					return
				}
				line, col := location(n)
				args := callArgs(n)
				sev := types.SeverityHigh
				if len(args) > 0 && !isLiteral(nodeArg(args, 0)) {
					sev = types.SeverityCritical
				}
				emit(line, col, name+"() spawns a shell with the given command string", sev)
			},
		},
		{
			ID: "DANGER-SUBPROCESS-SHELL-TRUE", Category: "execution", DefaultSeverity: types.SeverityCritical,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := calleeBareName(n, ctx.Src)
				switch name {
				case "run", "call", "check_call", "check_output", "Popen", "create_subprocess_shell":
				default:
					return
				}
				args := callArgs(n)
				shell := keywordArgValue(args, "shell", ctx.Src)
				if shell == nil || ctx.text(shell) != "True" {
					return
				}
				line, col := location(n)
				emit(line, col, "subprocess call with shell=True allows shell metacharacter injection", types.SeverityCritical)
			},
		},
		{
			ID: "DANGER-PTY-SPAWN", Category: "execution", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if callee(n, ctx.Src) != "pty.spawn" {
					return
				}
				line, col := location(n)
				emit(line, col, "pty.spawn() executes a command in a pseudo-terminal", types.SeverityMedium)
			},
		},
	}
}
