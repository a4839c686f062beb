package taint

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
)

// flaskRequestAttrs/djangoRequestAttrs/flaskRequestPrefixes mirror
// cytoscnpy/src/taint/sources.rs's framework attribute/prefix tables.
var flaskRequestPrefixes = []string{"args", "form", "data", "json", "cookies", "files", "values", "headers"}
var djangoRequestAttrs = []string{"GET", "POST", "COOKIES", "META", "FILES"}
var fastapiParamFuncs = map[string]bool{"Query": true, "Path": true, "Body": true, "Form": true, "Header": true, "Cookie": true}

var fileReadMethodSuffixes = []string{".read", ".readline", ".readlines"}

// checkCallSource detects a taint source at a call node, grounded on
// sources.rs's check_call_source: input(), os.getenv/os.environ.get,
// Flask request.<prefix>.get(...), Django request.<ATTR>.get(...), file
// read methods, and json/yaml load calls.
func checkCallSource(n *sitter.Node, src []byte, line int) (Source, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return Source{}, false
	}
	name := pyparse.NodeText(fn, src)

	switch name {
	case "input":
		return Source{Kind: "input", Name: "input()", Line: line}, true
	case "os.getenv":
		return Source{Kind: "environment", Name: name, Line: line}, true
	}
	if name == "os.environ.get" || strings.HasSuffix(name, ".environ.get") {
		return Source{Kind: "environment", Name: name, Line: line}, true
	}
	if name == "json.load" || name == "json.loads" || name == "yaml.load" || name == "yaml.safe_load" {
		return Source{Kind: "external_data", Name: name, Line: line}, true
	}
	for _, suffix := range fileReadMethodSuffixes {
		if strings.HasSuffix(name, suffix) {
			return Source{Kind: "file_read", Name: name, Line: line}, true
		}
	}
	for _, prefix := range flaskRequestPrefixes {
		if strings.HasPrefix(name, "request."+prefix+".") {
			return Source{Kind: "flask_request", Name: name, Line: line}, true
		}
	}
	for _, attr := range djangoRequestAttrs {
		if strings.HasPrefix(name, "request."+attr+".") {
			return Source{Kind: "django_request", Name: name, Line: line}, true
		}
	}
	return Source{}, false
}

// checkAttributeSource detects a taint source at an attribute-access node:
// request.<attr> where <attr> is a recognized Flask/Django attribute name,
// sys.argv, os.environ, and chained request.args.<key>-shaped access.
func checkAttributeSource(n *sitter.Node, src []byte, line int) (Source, bool) {
	full := pyparse.NodeText(n, src)
	if full == "sys.argv" {
		return Source{Kind: "argv", Name: full, Line: line}, true
	}
	if full == "os.environ" {
		return Source{Kind: "environment", Name: full, Line: line}, true
	}
	for _, prefix := range flaskRequestPrefixes {
		if strings.HasPrefix(full, "request."+prefix) {
			return Source{Kind: "flask_request", Name: full, Line: line}, true
		}
	}
	for _, attr := range djangoRequestAttrs {
		if strings.HasPrefix(full, "request."+attr) {
			return Source{Kind: "django_request", Name: full, Line: line}, true
		}
	}
	return Source{}, false
}

// checkSubscriptSource detects request.args['key'], os.environ['VAR'],
// sys.argv[0]-shaped subscript access.
func checkSubscriptSource(n *sitter.Node, src []byte, line int) (Source, bool) {
	obj := n.ChildByFieldName("value")
	if obj == nil {
		return Source{}, false
	}
	return checkAttributeOrNameSource(obj, src, line)
}

func checkAttributeOrNameSource(n *sitter.Node, src []byte, line int) (Source, bool) {
	switch n.Kind() {
	case "attribute":
		return checkAttributeSource(n, src, line)
	case "identifier":
		name := pyparse.NodeText(n, src)
		if name == "argv" {
			return Source{Kind: "argv", Name: name, Line: line}, true
		}
	}
	return Source{}, false
}

// checkFastAPIParamDefault detects a parameter default like
// `q: str = Query(None)` — any of Query/Path/Body/Form/Header/Cookie.
func checkFastAPIParamDefault(n *sitter.Node, src []byte, line int) (Source, bool) {
	if n == nil || n.Kind() != "call" {
		return Source{}, false
	}
	fn := n.ChildByFieldName("function")
	name := pyparse.NodeText(fn, src)
	if fastapiParamFuncs[name] {
		return Source{Kind: "fastapi_param", Name: name, Line: line}, true
	}
	return Source{}, false
}

// CheckExprSource is the dispatch entrypoint used by the intraprocedural
// pass: it inspects n's kind and returns the taint source it represents,
// if any, grounded on sources.rs's check_taint_source dispatch.
func CheckExprSource(n *sitter.Node, src []byte) (Source, bool) {
	if n == nil {
		return Source{}, false
	}
	line := int(n.StartPosition().Row) + 1
	switch n.Kind() {
	case "call":
		return checkCallSource(n, src, line)
	case "attribute":
		return checkAttributeSource(n, src, line)
	case "subscript":
		return checkSubscriptSource(n, src, line)
	}
	return Source{}, false
}
