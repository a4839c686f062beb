package taint

// SummaryDatabase memoizes per-function taint summaries so interprocedural
// analysis never re-walks the same function body twice, grounded on
// cytoscnpy/src/taint/summaries.rs's SummaryDatabase.
type SummaryDatabase struct {
	summaries map[string]FunctionSummary
}

// NewSummaryDatabase returns a database preloaded with builtin summaries.
func NewSummaryDatabase() *SummaryDatabase {
	db := &SummaryDatabase{summaries: make(map[string]FunctionSummary)}
	for name, s := range builtinSummaries() {
		db.summaries[name] = s
	}
	return db
}

// GetOrCompute returns the cached summary for name, computing and storing it
// via compute if absent.
func (db *SummaryDatabase) GetOrCompute(name string, compute func() FunctionSummary) FunctionSummary {
	if s, ok := db.summaries[name]; ok {
		return s
	}
	s := compute()
	db.summaries[name] = s
	return s
}

// Get returns the summary for name, if known.
func (db *SummaryDatabase) Get(name string) (FunctionSummary, bool) {
	s, ok := db.summaries[name]
	return s, ok
}

// FunctionTaintsReturn reports whether name's summary marks its return
// value as unconditionally tainted.
func (db *SummaryDatabase) FunctionTaintsReturn(name string) bool {
	s, ok := db.summaries[name]
	return ok && s.ReturnsTainted
}

// builtinSummaries seeds well-known stdlib function behavior so call sites
// into input()/os.getenv()/int()/float() resolve without a body to analyze,
// grounded on summaries.rs's get_builtin_summaries.
func builtinSummaries() map[string]FunctionSummary {
	return map[string]FunctionSummary{
		"input":      {Name: "input", ReturnsTainted: true, ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}},
		"os.getenv":  {Name: "os.getenv", ReturnsTainted: true, ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}},
		"int":        {Name: "int", ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}},
		"float":      {Name: "float", ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}},
		"bool":       {Name: "bool", ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}},
		"str":        {Name: "str", ParamToReturn: map[string]bool{"$0": true}, ParamToSinks: map[string][]string{}},
		"len":        {Name: "len", ParamToReturn: map[string]bool{}, ParamToSinks: map[string][]string{}},
	}
}
