package rules

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/types"
)

var weakHashCallees = map[string]bool{
	"hashlib.md5": true, "hashlib.md4": true, "hashlib.md2": true, "hashlib.sha1": true,
	"Crypto.Hash.MD5.new": true, "Crypto.Hash.SHA1.new": true,
}

var weakHashNames = map[string]bool{
	"md2": true, "md4": true, "md5": true, "sha1": true, "sha": true,
}

var weakCipherCallees = map[string]bool{
	"ARC2.new": true, "ARC4.new": true, "Blowfish.new": true,
	"DES.new": true, "DES3.new": true, "Crypto.Cipher.ARC4.new": true,
	"Crypto.Cipher.DES.new": true, "Crypto.Cipher.DES3.new": true,
	"Crypto.Cipher.Blowfish.new": true,
}

// cryptoRules implements the crypto rule family: weak hashes, weak
// ciphers / ECB mode, and PRNG used for security-labeled purposes.
func cryptoRules() []*Rule {
	return []*Rule{
		{
			ID: "DANGER-WEAK-HASH", Category: "crypto", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if weakHashCallees[name] {
					line, col := location(n)
					emit(line, col, name+"() is a cryptographically broken hash function", types.SeverityMedium)
					return
				}
				if name != "hashlib.new" {
					return
				}
				args := callArgs(n)
				if len(args) == 0 || nodeArg(args, 0).Kind() != "string" {
					return
				}
				alg := strings.ToLower(strings.Trim(ctx.text(nodeArg(args, 0)), "'\""))
				if weakHashNames[alg] {
					line, col := location(n)
					emit(line, col, "hashlib.new(\""+alg+"\") selects a cryptographically broken hash function", types.SeverityMedium)
				}
			},
		},
		{
			ID: "DANGER-WEAK-CIPHER", Category: "crypto", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"call"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				name := callee(n, ctx.Src)
				if !weakCipherCallees[name] {
					return
				}
				line, col := location(n)
				emit(line, col, name+"() uses a weak or broken cipher", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-ECB-MODE", Category: "crypto", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"identifier", "attribute"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				text := ctx.text(n)
				if text != "MODE_ECB" && !strings.HasSuffix(text, ".MODE_ECB") {
					return
				}
				line, col := location(n)
				emit(line, col, "ECB cipher mode leaks structural information in ciphertext", types.SeverityMedium)
			},
		},
		{
			ID: "DANGER-INSECURE-RANDOM-FOR-SECRET", Category: "crypto", DefaultSeverity: types.SeverityMedium,
			Kinds: []string{"assignment"},
			Check: func(n *sitter.Node, ctx *Context, emit func(int, int, string, types.Severity)) {
				left := n.ChildByFieldName("left")
				right := n.ChildByFieldName("right")
				if left == nil || right == nil || left.Kind() != "identifier" {
					return
				}
				varName := strings.ToLower(ctx.text(left))
				if !securityLabeled(varName) {
					return
				}
				if right.Kind() != "call" {
					return
				}
				name := callee(right, ctx.Src)
				if !strings.HasPrefix(name, "random.") {
					return
				}
				line, col := location(n)
				emit(line, col, "the standard `random` module is not cryptographically secure; use `secrets` instead", types.SeverityMedium)
			},
		},
	}
}

func securityLabeled(name string) bool {
	for _, word := range []string{"token", "secret", "password", "key", "nonce", "salt"} {
		if strings.Contains(name, word) {
			return true
		}
	}
	return false
}
