package visitor

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// computeLCOM4 computes the Lack of Cohesion of Methods (LCOM4) metric for
// one class: methods are vertices of a graph, connected when they touch a
// common `self.` attribute or call one another directly; LCOM4 is the
// number of connected components (metrics section). A
// cohesive class has LCOM4 == 1.
func (v *visitor) computeLCOM4(qn string, classNode *sitter.Node) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}

	var methodNames []string
	methodTouches := make(map[string][]string)

	for i := uint(0); i < body.ChildCount(); i++ {
		fn := body.Child(i)
		if fn.Kind() == "decorated_definition" {
			for j := uint(0); j < fn.ChildCount(); j++ {
				if fn.Child(j).Kind() == "function_definition" {
					fn = fn.Child(j)
					break
				}
			}
		}
		if fn.Kind() != "function_definition" {
			continue
		}
		name := text(fn.ChildByFieldName("name"), v.src)
		if name == "" {
			continue
		}
		methodNames = append(methodNames, name)
		var touched []string
		collectSelfAccesses(fn.ChildByFieldName("body"), v.src, &touched)
		methodTouches[name] = touched
	}

	if len(methodNames) == 0 {
		return
	}

	uf := newUnionFind(methodNames)
	methodSet := make(map[string]bool, len(methodNames))
	for _, m := range methodNames {
		methodSet[m] = true
	}
	attrOwner := make(map[string]string)
	for _, m := range methodNames {
		for _, touch := range methodTouches[m] {
			if methodSet[touch] {
				uf.union(touch, m)
				continue
			}
			if owner, ok := attrOwner[touch]; ok {
				uf.union(owner, m)
			} else {
				attrOwner[touch] = m
			}
		}
	}

	v.lcom4[qn] = uf.countComponents()
}

// collectSelfAccesses gathers the simple names of `self.X` attribute reads
// and `self.X(...)` method calls within a method body, stopping at nested
// function/class/lambda boundaries.
func collectSelfAccesses(n *sitter.Node, src []byte, out *[]string) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "function_definition", "class_definition", "lambda":
		return
	case "attribute":
		obj := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		if obj != nil && attr != nil && obj.Kind() == "identifier" && text(obj, src) == "self" {
			*out = append(*out, text(attr, src))
		}
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		collectSelfAccesses(n.Child(i), src, out)
	}
}

// unionFind is a minimal disjoint-set structure keyed by method name.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(names []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(names))}
	for _, n := range names {
		uf.parent[n] = n
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

func (uf *unionFind) countComponents() int {
	roots := make(map[string]bool)
	for k := range uf.parent {
		roots[uf.find(k)] = true
	}
	return len(roots)
}
