package rules

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

var httpCallNames = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true, "patch": true,
	"head": true, "options": true, "request": true,
}

// networkRules implements the network rule family.
func networkRules() []*Rule {
	return []*Rule{
		{
			ID: "DANGER-SSL-VERIFY-DISABLED", Category: "network", DefaultSeverity: types.SeverityHigh,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				args := callArgs(n)
				verify := keywordArgValue(args, "verify", ctx.Src)
				if verify != nil && ctx.text(verify) == "False" {
					line, col := location(n)
					emit(line, col, "verify=False disables TLS certificate validation", types.SeverityHigh)
					return
				}
				checkHostname := keywordArgValue(args, "check_hostname", ctx.Src)
				if checkHostname != nil && ctx.text(checkHostname) == "False" {
					line, col := location(n)
					emit(line, col, "check_hostname=False disables TLS hostname verification", types.SeverityHigh)
				}
			},
		},
		{
			ID: "DANGER-SSL-WRAP-SOCKET", Category: "network", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				if callee(n, ctx.Src) != "ssl.wrap_socket" {
					return
				}
				line, col := location(n)
				emit(line, col, "ssl.wrap_socket() is deprecated and defaults to a permissive protocol/cipher set", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-BIND-ALL-INTERFACES", Category: "network", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				args := callArgs(n)
				host := keywordArgValue(args, "host", ctx.Src)
				if host == nil {
					host = nodeArg(args, 0)
				}
				if host == nil || host.Kind() != "string" {
					return
				}
				addr := strings.Trim(ctx.text(host), "'\"")
				if addr != "0.0.0.0" && addr != "::" {
					return
				}
				name := calleeBareName(n, ctx.Src)
				if name != "run" && name != "listen" && name != "bind" {
					return
				}
				line, col := location(n)
				emit(line, col, "binding to "+addr+" exposes the service on every network interface", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-NO-TIMEOUT", Category: "network", DefaultSeverity: types.SeverityLow,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				recv := ""
				if fn := callFunction(n); fn != nil && fn.Kind() == "attribute" {
					if obj := fn.ChildByFieldName("object"); obj != nil {
						recv = ctx.text(obj)
					}
				}
				name := calleeBareName(n, ctx.Src)
				if recv != "requests" || !httpCallNames[name] {
					return
				}
				args := callArgs(n)
				if keywordArgValue(args, "timeout", ctx.Src) != nil {
					return
				}
				line, col := location(n)
				emit(line, col, "requests."+name+"() without a timeout can hang indefinitely", types.SeverityLow)
			},
		},
	}
}
