package rules

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

var pickleLoaders = map[string]bool{
	"pickle.load": true, "pickle.loads": true,
	"cPickle.load": true, "cPickle.loads": true,
	"dill.load": true, "dill.loads": true,
	"joblib.load": true,
}

// deserializationRules implements the deserialization rule family.
func deserializationRules() []*Rule {
	return []*Rule{
		{
			ID: "DANGER-PICKLE-LOAD", Category: "deserialization", DefaultSeverity: types.SeverityHigh,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if !pickleLoaders[name] {
					return
				}
				line, col := location(n)
				emit(line, col, name+"() executes arbitrary code embedded in the pickled stream", types.SeverityHigh)
			},
		},
		{
			ID: "DANGER-YAML-UNSAFE-LOAD", Category: "deserialization", DefaultSeverity: types.SeverityHigh,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if name != "yaml.load" && name != "yaml.load_all" {
					return
				}
				args := callArgs(n)
				loader := keywordArgValue(args, "Loader", ctx.Src)
				if loader == nil && len(args) > 1 {
					loader = args[1]
				}
				if loader != nil && safeLoaders[ctx.text(loader)] {
					return
				}
				line, col := location(n)
				emit(line, col, "yaml.load() without SafeLoader can instantiate arbitrary Python objects", types.SeverityHigh)
			},
		},
		{
			ID: "DANGER-MARSHAL-LOAD", Category: "deserialization", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if name != "marshal.load" && name != "marshal.loads" {
					return
				}
				line, col := location(n)
				emit(line, col, name+"() deserializes a trusted-only bytecode format", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-UNSAFE-MODEL-LOAD", Category: "deserialization", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if name != "torch.load" {
					return
				}
				args := callArgs(n)
				wo := keywordArgValue(args, "weights_only", ctx.Src)
				if wo != nil && ctx.text(wo) == "True" {
					return
				}
				line, col := location(n)
				emit(line, col, "torch.load() without weights_only=True can execute arbitrary code via pickle", types.SeverityMedium)
			},
		},
	}
}

var safeLoaders = map[string]bool{
	"yaml.SafeLoader": true, "SafeLoader": true, "yaml.CSafeLoader": true,
}
