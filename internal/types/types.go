// Package types holds the shared data model produced by the Parser Façade,
// Definition Visitor, Heuristic Scorer, Rule Engine, Clone Engine, Taint
// Engine, and Aggregator.
package types

import "sync"

// DefType enumerates the kinds of definitions the visitor emits.
type DefType string

const (
	DefFunction  DefType = "function"
	DefMethod    DefType = "method"
	DefClass     DefType = "class"
	DefImport    DefType = "import"
	DefVariable  DefType = "variable"
	DefParameter DefType = "parameter"
)

// Severity orders finding severities from most to least urgent.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// FileRef is a shared, immutable handle to a source file's path, owned once
// and referenced by every Definition/Finding produced from it.
type FileRef struct {
	Path   string `json:"path"`
	Module string `json:"module"` // dotted module path from the analysis root
}

// Fix is a byte-range replacement proposal. The rewriter that applies it is
// an external collaborator; this type only carries the contract.
type Fix struct {
	StartByte   uint32 `json:"start_byte"`
	EndByte     uint32 `json:"end_byte"`
	Replacement string `json:"replacement"`
}

// Definition is one named, locatable program entity.
//
// Definitions are created once by the Visitor and mutated exactly twice
// afterward: by the Heuristic Scorer (Confidence/flags) and by the
// Aggregator (References).
type Definition struct {
	FullName   string  `json:"full_name"`
	SimpleName string  `json:"simple_name"`
	DefType    DefType `json:"def_type"`

	File      *FileRef `json:"file"`
	Line      int      `json:"line"`
	EndLine   int      `json:"end_line"`
	Col       int      `json:"col"`
	StartByte uint32   `json:"start_byte"`
	EndByte   uint32   `json:"end_byte"`

	References int `json:"references"`
	Confidence int `json:"confidence"` // 0..100

	IsExported        bool `json:"is_exported"`
	InInit            bool `json:"in_init"`
	IsModuleLevel     bool `json:"is_module_level"`
	IsFrameworkManaged bool `json:"is_framework_managed"`
	IsTypeChecking    bool `json:"is_type_checking"`
	IsCaptured        bool `json:"is_captured"`
	IsSelfReferential bool `json:"is_self_referential"`
	IsEnumMember      bool `json:"is_enum_member"`
	IsConstant        bool `json:"is_constant"`

	BaseClasses []string `json:"base_classes,omitempty"`

	Message string `json:"message,omitempty"`
	Fix     *Fix   `json:"fix,omitempty"`
}

// Valid reports whether the definition satisfies the data-model invariants
// (start_byte < end_byte, line <= end_line, confidence in range,
// simple_name is the last dotted segment of full_name).
func (d *Definition) Valid() bool {
	if d.StartByte >= d.EndByte {
		return false
	}
	if d.Line > d.EndLine {
		return false
	}
	if d.Confidence < 0 || d.Confidence > 100 {
		return false
	}
	return true
}

// RefCountMap maps a queried name (full_name or simple_name) to a
// non-negative reference count. Merged across files by keyed addition.
type RefCountMap map[string]int

// Merge adds other's counts into m (keyed addition, commutative/associative).
func (m RefCountMap) Merge(other RefCountMap) {
	for k, v := range other {
		m[k] += v
	}
}

// Finding is a rule output.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Col      int      `json:"col"`
	Severity Severity `json:"severity"`
}

// SecretFinding is a Finding plus secret-scanner-specific fields.
type SecretFinding struct {
	Finding
	MatchedValue string   `json:"matched_value"` // possibly redacted
	Entropy      *float64 `json:"entropy,omitempty"`
	Confidence   int      `json:"confidence"`
}

// VulnType enumerates the taint-engine vulnerability classes.
type VulnType string

const (
	VulnSQLInjection     VulnType = "SqlInjection"
	VulnCommandInjection VulnType = "CommandInjection"
	VulnCodeInjection    VulnType = "CodeInjection"
	VulnPathTraversal    VulnType = "PathTraversal"
	VulnSSRF             VulnType = "Ssrf"
	VulnXSS              VulnType = "Xss"
	VulnDeserialization  VulnType = "Deserialization"
	VulnOpenRedirect     VulnType = "OpenRedirect"
)

// TaintSource describes where tainted data entered the program.
type TaintSource struct {
	Kind string `json:"kind"` // e.g. "flask_request", "input", "environment", "argv", ...
	Name string `json:"name"` // attribute/parameter name when applicable
	Line int    `json:"line"`
}

// TaintSink describes the dangerous call a tainted value reached.
type TaintSink struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// TaintFinding is a taint-engine output.
type TaintFinding struct {
	Source      TaintSource `json:"source"`
	Sink        TaintSink   `json:"sink"`
	FlowPath    []string    `json:"flow_path"` // variable-name hops
	VulnType    VulnType    `json:"vuln_type"`
	Severity    Severity    `json:"severity"`
	File        string      `json:"file"`
	Remediation string      `json:"remediation,omitempty"`
}

// ParseError records a recoverable per-file parse failure.
type ParseError struct {
	File  string `json:"file"`
	Error string `json:"error"` // includes " at line N" suffix when known
	Line  int    `json:"line,omitempty"`
}

// NodeKind identifies the syntactic category of a clone subtree.
type NodeKind string

const (
	NodeFunction      NodeKind = "function"
	NodeAsyncFunction NodeKind = "async_function"
	NodeClass         NodeKind = "class"
	NodeMethod        NodeKind = "method"
)

// CloneInstance is one extracted subtree eligible for clone matching.
type CloneInstance struct {
	File           string   `json:"file"`
	StartLine      int      `json:"start_line"`
	EndLine        int      `json:"end_line"`
	StartByte      uint32   `json:"start_byte"`
	EndByte        uint32   `json:"end_byte"`
	NormalizedHash uint64   `json:"normalized_hash"`
	Name           string   `json:"name"`
	NodeKind       NodeKind `json:"node_kind"`
}

// CloneType classifies the kind of duplication between two instances.
type CloneType string

const (
	CloneType1 CloneType = "Type1" // exact
	CloneType2 CloneType = "Type2" // renamed
	CloneType3 CloneType = "Type3" // near-miss
)

// ClonePair is a pair of matched clone instances.
type ClonePair struct {
	InstanceA    CloneInstance `json:"instance_a"`
	InstanceB    CloneInstance `json:"instance_b"`
	Similarity   float64       `json:"similarity"`
	CloneType    CloneType     `json:"clone_type"`
	EditDistance int           `json:"edit_distance"`
}

// IsSameFile reports whether both instances of the pair live in one file.
func (p *ClonePair) IsSameFile() bool {
	return p.InstanceA.File == p.InstanceB.File
}

// CloneGroup is a union-find component of pairwise clones.
type CloneGroup struct {
	ID             int             `json:"id"`
	Instances      []CloneInstance `json:"instances"`
	CanonicalIndex int             `json:"canonical_index"`
	CloneType      CloneType       `json:"clone_type"`
	AvgSimilarity  float64         `json:"avg_similarity"`
}

// Canonical returns the group's canonical instance (first by file, start byte).
func (g *CloneGroup) Canonical() CloneInstance {
	return g.Instances[g.CanonicalIndex]
}

// Duplicates returns every non-canonical instance in the group.
func (g *CloneGroup) Duplicates() []CloneInstance {
	out := make([]CloneInstance, 0, len(g.Instances)-1)
	for i, inst := range g.Instances {
		if i != g.CanonicalIndex {
			out = append(out, inst)
		}
	}
	return out
}

// CloneFinding is the clone engine's finding-shaped output.
type CloneFinding struct {
	Finding
	CloneType     CloneType      `json:"clone_type"`
	Similarity    float64        `json:"similarity"`
	Name          string         `json:"name"`
	RelatedClone  *CloneInstance `json:"related_clone,omitempty"`
	FixConfidence int            `json:"fix_confidence"`
	IsDuplicate   bool           `json:"is_duplicate"`
	Suggestion    string         `json:"suggestion,omitempty"`
	NodeKind      NodeKind       `json:"node_kind"`
}

// RawMetrics are line-type counts for one file.
type RawMetrics struct {
	LOC     int `json:"loc"`
	SLOC    int `json:"sloc"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Multi   int `json:"multi"` // multi-line-string-continuation lines
}

// Add accumulates other into m.
func (m *RawMetrics) Add(other RawMetrics) {
	m.LOC += other.LOC
	m.SLOC += other.SLOC
	m.Blank += other.Blank
	m.Comment += other.Comment
	m.Multi += other.Multi
}

// HalsteadMetrics are the four base counts plus textbook-derived measures.
type HalsteadMetrics struct {
	N1      int `json:"n1"` // distinct operators
	N2      int `json:"n2"` // distinct operands
	TotalN1 int `json:"total_n1"` // total operators
	TotalN2 int `json:"total_n2"` // total operands
}

// Add accumulates other into m (base counts only; derived measures are
// recomputed from the totals at report time).
func (m *HalsteadMetrics) Add(other HalsteadMetrics) {
	m.N1 += other.N1
	m.N2 += other.N2
	m.TotalN1 += other.TotalN1
	m.TotalN2 += other.TotalN2
}

// Derived computes the textbook Halstead measures from the base counts.
type HalsteadDerived struct {
	Vocabulary int     `json:"vocabulary"`
	Length     int     `json:"length"`
	Volume     float64 `json:"volume"`
	Difficulty float64 `json:"difficulty"`
	Effort     float64 `json:"effort"`
	Time       float64 `json:"time"` // seconds
	Bugs       float64 `json:"bugs"`
}

// Derive computes volume/difficulty/effort/time/bugs from m.
func (m HalsteadMetrics) Derive() HalsteadDerived {
	return deriveHalstead(m.N1, m.N2, m.TotalN1, m.TotalN2)
}

// FunctionMetrics holds per-definition complexity/size metrics.
type FunctionMetrics struct {
	FullName             string          `json:"full_name"`
	CyclomaticComplexity int             `json:"cyclomatic_complexity"`
	CognitiveComplexity  int             `json:"cognitive_complexity"`
	NestingDepth         int             `json:"nesting_depth"`
	Lines                int             `json:"lines"`
	Halstead             HalsteadMetrics `json:"halstead"`
	MaintainabilityIndex float64         `json:"maintainability_index"`
}

// FileMetrics aggregates per-file metrics reported alongside results.
type FileMetrics struct {
	File                 string         `json:"file"`
	Raw                  RawMetrics     `json:"raw"`
	Halstead             HalsteadMetrics `json:"halstead"`
	TotalDefinitions     int            `json:"total_definitions"`
	TotalIssues          int            `json:"total_issues"`
	AverageComplexity    float64        `json:"average_complexity"`
	AverageCognitive     float64        `json:"average_cognitive"`
	MaintainabilityIndex float64        `json:"maintainability_index"`
	LCOM4                map[string]int `json:"lcom4,omitempty"` // class full_name -> LCOM4 value
}

// AnalysisSummary is the per-run aggregate.
type AnalysisSummary struct {
	TotalFiles         int             `json:"total_files"`
	TotalDirectories   int             `json:"total_directories"`
	TotalLinesAnalyzed int             `json:"total_lines_analyzed"`
	TotalDefinitions   int             `json:"total_definitions"`
	CountsByCategory   map[string]int  `json:"counts_by_category"`
	AverageComplexity  float64         `json:"average_complexity"`
	AverageCognitive   float64         `json:"average_cognitive"`
	AverageMI          float64         `json:"average_mi"`
	RawMetrics         RawMetrics      `json:"raw_metrics"`
	HalsteadMetrics    HalsteadMetrics `json:"halstead_metrics"`
}

// AnalysisResult is the top-level report shape.
type AnalysisResult struct {
	RunID string `json:"run_id"`

	UnusedFunctions  []Definition `json:"unused_functions"`
	UnusedMethods    []Definition `json:"unused_methods"`
	UnusedImports    []Definition `json:"unused_imports"`
	UnusedClasses    []Definition `json:"unused_classes"`
	UnusedVariables  []Definition `json:"unused_variables"`
	UnusedParameters []Definition `json:"unused_parameters"`

	Secrets       []SecretFinding `json:"secrets"`
	Danger        []Finding       `json:"danger"`
	Quality       []Finding       `json:"quality"`
	TaintFindings []TaintFinding  `json:"taint_findings"`
	ParseErrors   []ParseError    `json:"parse_errors"`
	Clones        []CloneFinding  `json:"clones"`

	FileMetrics []FileMetrics `json:"file_metrics"`

	AnalysisSummary AnalysisSummary `json:"analysis_summary"`
}

// NodeIndex is the append-only concurrent map from qualified name to a
// semantic-graph node index. Insert-or-get is
// lock-free for reads; inserts take a short-held write lock.
type NodeIndex struct {
	mu   sync.RWMutex
	byQN map[string]int
	next int
}

// NewNodeIndex constructs an empty index.
func NewNodeIndex() *NodeIndex {
	return &NodeIndex{byQN: make(map[string]int)}
}

// GetOrInsert returns the existing node index for qn, or allocates one.
func (ni *NodeIndex) GetOrInsert(qn string) int {
	ni.mu.RLock()
	if idx, ok := ni.byQN[qn]; ok {
		ni.mu.RUnlock()
		return idx
	}
	ni.mu.RUnlock()

	ni.mu.Lock()
	defer ni.mu.Unlock()
	if idx, ok := ni.byQN[qn]; ok {
		return idx
	}
	idx := ni.next
	ni.byQN[qn] = idx
	ni.next++
	return idx
}
