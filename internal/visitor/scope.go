package visitor

import "strings"

// scopeKind names the kind of nested scope being tracked, 
// "Scope tracking": module → class → function → nested.
type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeClass
	scopeFunction
)

// scopeFrame is one entry of the nested-scope stack. Qualified name of a
// definition is the dot-join of the enclosing scope chain and its simple
// name; distinct scopes disambiguate same-named locals (four `x` in four
// different nesting levels must coexist).
type scopeFrame struct {
	kind       scopeKind
	simpleName string
	parent     *scopeFrame

	// locals maps a simple name already defined directly in this scope to
	// its full qualified name, used to resolve attribute/name references
	// against definitions introduced in the same or an enclosing scope.
	locals map[string]string
}

// scopeStack is a stack of scopeFrame, rooted at the module scope.
type scopeStack struct {
	top *scopeFrame
}

func newScopeStack(moduleQualified string) *scopeStack {
	return &scopeStack{top: &scopeFrame{
		kind:       scopeModule,
		simpleName: moduleQualified,
		locals:     make(map[string]string),
	}}
}

func (s *scopeStack) push(kind scopeKind, simpleName string) {
	s.top = &scopeFrame{kind: kind, simpleName: simpleName, parent: s.top, locals: make(map[string]string)}
}

func (s *scopeStack) pop() {
	if s.top.parent != nil {
		s.top = s.top.parent
	}
}

// qualify returns the dotted, scope-qualified full name for simpleName
// defined in the current scope.
func (s *scopeStack) qualify(simpleName string) string {
	var parts []string
	for f := s.top; f != nil; f = f.parent {
		if f.kind == scopeModule {
			if f.simpleName != "" {
				parts = append(parts, f.simpleName)
			}
			continue
		}
		parts = append(parts, f.simpleName)
	}
	// parts currently innermost-first; reverse.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	parts = append(parts, simpleName)
	return strings.Join(parts, ".")
}

// declare registers simpleName as a local of the current scope, returning its
// qualified name.
func (s *scopeStack) declare(simpleName string) string {
	qn := s.qualify(simpleName)
	s.top.locals[simpleName] = qn
	return qn
}

// inClass reports whether the current (innermost) scope is a class body,
// used to distinguish method definitions from plain functions.
func (s *scopeStack) inClass() bool {
	return s.top.kind == scopeClass
}

// inFunction reports whether any enclosing scope (including the current
// one) is a function, used for nested-function detection.
func (s *scopeStack) inFunction() bool {
	for f := s.top; f != nil; f = f.parent {
		if f.kind == scopeFunction {
			return true
		}
	}
	return false
}

// depth returns the scope nesting depth (module = 0).
func (s *scopeStack) depth() int {
	d := 0
	for f := s.top; f != nil; f = f.parent {
		if f.kind != scopeModule {
			d++
		}
	}
	return d
}

// resolveLocal walks outward from the current scope looking for simpleName
// registered as a local, returning its qualified name if found.
func (s *scopeStack) resolveLocal(simpleName string) (string, bool) {
	for f := s.top; f != nil; f = f.parent {
		if qn, ok := f.locals[simpleName]; ok {
			return qn, true
		}
	}
	return "", false
}
