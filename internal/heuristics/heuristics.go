// Package heuristics implements the Heuristic Scorer: a
// penalty-based confidence reducer applied to every Definition after
// reference counts have been merged across the whole project.
package heuristics

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/pyaudit/internal/suppress"
	"github.com/standardbeagle/pyaudit/internal/types"
	"github.com/standardbeagle/pyaudit/internal/visitor"
)

var dunderPattern = regexp.MustCompile(`^__[A-Za-z0-9_]+__$`)

// Options configures scope-dependent penalties.
type Options struct {
	ExcludeTests bool
}

// LineSource resolves the raw source line text for a definition, used to
// check for a suppression pragma on its line.
type LineSource interface {
	Line(filePath string, lineNo int) string
}

// Score applies every penalty in table to defs in place,
// using src to look up each definition's source line for pragma detection.
func Score(defs []types.Definition, src LineSource, opts Options) {
	for i := range defs {
		scoreOne(&defs[i], src, opts)
	}
}

func scoreOne(d *types.Definition, src LineSource, opts Options) {
	line := src.Line(fileRefPath(d), d.Line)
	pragma := suppress.Parse(line)
	if pragma.SuppressesTool("dead-code") || pragma.SuppressesTool("all") {
		d.Confidence = 0
		return
	}

	conf := d.Confidence
	sub := func(p int) {
		conf -= p
		if conf < 0 {
			conf = 0
		}
	}

	if opts.ExcludeTests && isTestFile(fileRefPath(d)) {
		sub(100)
	}
	if d.IsFrameworkManaged && conf > 40 {
		conf = 40
	}
	if isMixinScope(d.FullName) {
		sub(60)
	}
	if isBaseAbstractInterface(d) {
		sub(50)
	}
	if strings.Contains(d.SimpleName, "Adapter") {
		sub(30)
	}
	if strings.HasPrefix(d.SimpleName, "on_") || strings.HasPrefix(d.SimpleName, "watch_") {
		sub(30)
	}
	if d.SimpleName == "compose" {
		sub(40)
	}
	if strings.HasPrefix(d.SimpleName, "_") && !strings.HasPrefix(d.SimpleName, "__") {
		sub(80)
	}
	if dunderPattern.MatchString(d.SimpleName) {
		sub(100)
	}
	if visitor.AutoCalledNames[d.SimpleName] {
		sub(100)
	}
	if d.IsConstant && d.IsModuleLevel {
		sub(80)
	}
	if d.InInit {
		sub(15)
	}
	if d.IsTypeChecking && d.References > 0 {
		sub(100)
	}

	d.Confidence = conf
}

// ApplyPostMergeHeuristics implements "applied after
// reference merge" bullets, which depend on cross-definition context
// (enclosing class name, visitor-pattern method naming) rather than a
// single definition in isolation.
func ApplyPostMergeHeuristics(defs []types.Definition) {
	classNames := make(map[string]string) // class full_name -> simple_name
	frameworkScopes := make(map[string]bool)
	for _, d := range defs {
		if d.DefType == types.DefClass {
			classNames[d.FullName] = d.SimpleName
		}
		if d.IsFrameworkManaged && (d.DefType == types.DefClass || d.DefType == types.DefFunction || d.DefType == types.DefMethod) {
			frameworkScopes[d.FullName] = true
		}
	}

	for i := range defs {
		d := &defs[i]
		if !d.IsFrameworkManaged && insideFrameworkManagedScope(d.FullName, frameworkScopes) {
			conf := d.Confidence - 50
			if conf < 0 {
				conf = 0
			}
			d.Confidence = conf
		}
		switch d.DefType {
		case types.DefVariable:
			if d.IsConstant {
				if cls := enclosingClassSimpleName(d.FullName, classNames); cls != "" &&
					(strings.HasSuffix(cls, "Settings") || strings.HasSuffix(cls, "Config")) {
					d.Confidence = 0
				}
			}
		case types.DefMethod:
			if strings.HasPrefix(d.SimpleName, "visit_") ||
				strings.HasPrefix(d.SimpleName, "leave_") ||
				strings.HasPrefix(d.SimpleName, "transform_") {
				d.References++
			}
		case types.DefImport:
			if d.IsTypeChecking && d.References == 0 {
				// Genuinely unused TYPE_CHECKING import: leave confidence as-is,
				// it should surface as unused rather than be suppressed.
				_ = d
			}
		}
	}
}

func fileRefPath(d *types.Definition) string {
	if d.File == nil {
		return ""
	}
	return d.File.Path
}

func isTestFile(path string) bool {
	lower := strings.ToLower(path)
	base := lower
	if idx := strings.LastIndexByte(lower, '/'); idx >= 0 {
		base = lower[idx+1:]
	}
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, seg := range strings.Split(lower, "/") {
		if seg == "tests" || seg == "test" {
			return true
		}
	}
	return false
}

// isMixinScope reports whether any enclosing scope segment of a qualified
// name names a mixin class ("...Mixin...").
func isMixinScope(fullName string) bool {
	parts := strings.Split(fullName, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[:len(parts)-1] {
		if strings.Contains(p, "Mixin") {
			return true
		}
	}
	return false
}

func isBaseAbstractInterface(d *types.Definition) bool {
	name := d.SimpleName
	if d.DefType == types.DefClass {
		return containsAny(name, "Base", "Abstract", "Interface")
	}
	if d.DefType == types.DefMethod {
		parts := strings.Split(d.FullName, ".")
		if len(parts) >= 2 {
			return containsAny(parts[len(parts)-2], "Base", "Abstract", "Interface")
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// insideFrameworkManagedScope reports whether fullName names a definition
// nested inside (not itself) a class or function carrying a framework
// decorator, e.g. a plain method of a class decorated with
// @admin.register(...).
func insideFrameworkManagedScope(fullName string, frameworkScopes map[string]bool) bool {
	parts := strings.Split(fullName, ".")
	for end := len(parts) - 1; end >= 1; end-- {
		if frameworkScopes[strings.Join(parts[:end], ".")] {
			return true
		}
	}
	return false
}

func enclosingClassSimpleName(fullName string, classNames map[string]string) string {
	parts := strings.Split(fullName, ".")
	for end := len(parts) - 1; end >= 1; end-- {
		candidate := strings.Join(parts[:end], ".")
		if name, ok := classNames[candidate]; ok {
			return name
		}
	}
	return ""
}
