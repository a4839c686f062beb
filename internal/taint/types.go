// Package taint implements the CFG & Taint Engine: per-
// function reaching-definitions analysis for dead-local detection, and
// intraprocedural/interprocedural taint tracking from sources to sinks for
// the security-finding families the rest of the rule engine covers.
package taint

import "github.com/standardbeagle/pyaudit/internal/types"

// Source describes the taint origin an expression resolved to, grounded on
// cytoscnpy/src/taint/types.rs's TaintSource enum.
type Source struct {
	Kind string // "flask_request", "django_request", "fastapi_param", "azure_functions_request", "input", "environment", "argv", "file_read", "external_data", "function_param", "function_return"
	Name string
	Line int
}

// Info carries a value's taint provenance and the variable-name hops it
// has passed through, mirroring cytoscnpy/src/taint/types.rs's TaintInfo.
type Info struct {
	Source Source
	Path   []string
}

// ExtendPath returns a copy of ti with hop appended, used when a tainted
// value is reassigned to a new name.
func (ti Info) ExtendPath(hop string) Info {
	path := make([]string, len(ti.Path), len(ti.Path)+1)
	copy(path, ti.Path)
	path = append(path, hop)
	return Info{Source: ti.Source, Path: path}
}

// FlowPathStrings renders the hop path as flow_path list: the
// source name followed by every subsequent variable hop.
func (ti Info) FlowPathStrings() []string {
	out := make([]string, 0, len(ti.Path)+1)
	if ti.Source.Name != "" {
		out = append(out, ti.Source.Name)
	}
	out = append(out, ti.Path...)
	return out
}

// State is a per-program-point taint map (variable name -> provenance),
// grounded on cytoscnpy/src/taint/propagation.rs's TaintState.
type State struct {
	tainted map[string]Info
}

// NewState returns an empty taint state.
func NewState() *State {
	return &State{tainted: make(map[string]Info)}
}

// Clone returns an independent copy, used at branch points so each arm
// mutates its own state.
func (s *State) Clone() *State {
	c := &State{tainted: make(map[string]Info, len(s.tainted))}
	for k, v := range s.tainted {
		c.tainted[k] = v
	}
	return c
}

// MarkTainted records name as tainted with the given provenance.
func (s *State) MarkTainted(name string, info Info) {
	s.tainted[name] = info
}

// IsTainted reports whether name currently carries taint.
func (s *State) IsTainted(name string) bool {
	_, ok := s.tainted[name]
	return ok
}

// GetTaint returns name's provenance, if tainted.
func (s *State) GetTaint(name string) (Info, bool) {
	info, ok := s.tainted[name]
	return info, ok
}

// Sanitize removes name's taint (a sanitizer call cleared it).
func (s *State) Sanitize(name string) {
	delete(s.tainted, name)
}

// Merge folds other into s at a control-flow join, keeping s's existing
// entry when both sides disagree (conservative union: once any branch
// provably sanitizes a name, a different branch's taint would still be a
// real bug downstream, so only missing entries are added).
func (s *State) Merge(other *State) {
	for k, v := range other.tainted {
		if _, ok := s.tainted[k]; !ok {
			s.tainted[k] = v
		}
	}
}

// FunctionSummary records what a function does to its parameters and
// return value, grounded on cytoscnpy/src/taint/types.rs's FunctionSummary.
type FunctionSummary struct {
	Name            string
	ParamToReturn   map[string]bool // parameter name -> "tainting this param taints the return value"
	ParamToSinks    map[string][]string // parameter name -> dangerous call names it reaches
	ReturnsTainted  bool // the function returns a source-tainted value regardless of arguments
	HasSinks        bool
}

// Finding is the taint engine's per-vulnerability output.
type Finding struct {
	Source      Source
	SinkName    string
	SinkLine    int
	SinkCol     int
	FlowPath    []string
	VulnType    types.VulnType
	Severity    types.Severity
	File        string
	Remediation string
}

// ToTypesFinding converts to the shared report shape.
func (f Finding) ToTypesFinding() types.TaintFinding {
	return types.TaintFinding{
		Source:      types.TaintSource{Kind: f.Source.Kind, Name: f.Source.Name, Line: f.Source.Line},
		Sink:        types.TaintSink{Name: f.SinkName, Line: f.SinkLine, Col: f.SinkCol},
		FlowPath:    f.FlowPath,
		VulnType:    f.VulnType,
		Severity:    f.Severity,
		File:        f.File,
		Remediation: f.Remediation,
	}
}
