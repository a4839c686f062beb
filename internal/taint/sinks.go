package taint

import "github.com/standardbeagle/pyaudit/internal/types"

// SinkInfo describes one dangerous call target: its vulnerability class,
// which positional argument indices are dangerous if tainted, and the
// remediation text surfaced on the resulting Finding. No sinks.rs was
// retrieved alongside the other cytoscnpy taint source files, so this
// table is authored directly from the rule families already
// enumerates for the Rule Engine (execution, deserialization, network,
// filesystem) plus the injection/XSS/SSRF classes names for
// the taint engine specifically.
type SinkInfo struct {
	VulnType     types.VulnType
	DangerousArgs []int // positional argument indices; empty means "any argument"
	Severity     types.Severity
	Remediation  string
}

// sinkTable maps a fully-qualified (or best-effort qualified) callee name
// to its sink description.
var sinkTable = map[string]SinkInfo{
	// SQL injection — string-built query execution (see isParameterizedQuery
	// exception applied by the caller before consulting this table).
	"cursor.execute":     {types.VulnSQLInjection, []int{0}, types.SeverityCritical, "Use parameterized queries (pass parameters separately, not string-built)."},
	"cursor.executemany": {types.VulnSQLInjection, []int{0}, types.SeverityCritical, "Use parameterized queries (pass parameters separately, not string-built)."},
	"connection.execute": {types.VulnSQLInjection, []int{0}, types.SeverityCritical, "Use parameterized queries (pass parameters separately, not string-built)."},
	"session.execute":    {types.VulnSQLInjection, []int{0}, types.SeverityCritical, "Use SQLAlchemy's bound-parameter API instead of string-built SQL."},
	"db.execute":         {types.VulnSQLInjection, []int{0}, types.SeverityCritical, "Use parameterized queries (pass parameters separately, not string-built)."},

	// Command injection.
	"os.system":                  {types.VulnCommandInjection, []int{0}, types.SeverityCritical, "Use subprocess with an argument list and shell=False."},
	"os.popen":                   {types.VulnCommandInjection, []int{0}, types.SeverityCritical, "Use subprocess with an argument list and shell=False."},
	"subprocess.run":             {types.VulnCommandInjection, []int{0}, types.SeverityHigh, "Pass command arguments as a list rather than a shell string, and avoid shell=True."},
	"subprocess.call":            {types.VulnCommandInjection, []int{0}, types.SeverityHigh, "Pass command arguments as a list rather than a shell string, and avoid shell=True."},
	"subprocess.Popen":           {types.VulnCommandInjection, []int{0}, types.SeverityHigh, "Pass command arguments as a list rather than a shell string, and avoid shell=True."},
	"subprocess.check_output":    {types.VulnCommandInjection, []int{0}, types.SeverityHigh, "Pass command arguments as a list rather than a shell string, and avoid shell=True."},
	"subprocess.getoutput":       {types.VulnCommandInjection, []int{0}, types.SeverityCritical, "Avoid building shell commands from untrusted input."},

	// Code injection.
	"eval": {types.VulnCodeInjection, nil, types.SeverityCritical, "Never evaluate untrusted input as code; use ast.literal_eval for data, or a proper parser."},
	"exec": {types.VulnCodeInjection, nil, types.SeverityCritical, "Never execute untrusted input as code."},

	// Insecure deserialization.
	"pickle.load":   {types.VulnDeserialization, []int{0}, types.SeverityCritical, "Do not unpickle untrusted data; use a safe format like JSON."},
	"pickle.loads":  {types.VulnDeserialization, []int{0}, types.SeverityCritical, "Do not unpickle untrusted data; use a safe format like JSON."},
	"yaml.load":     {types.VulnDeserialization, []int{0}, types.SeverityHigh, "Use yaml.safe_load instead of yaml.load for untrusted input."},
	"marshal.loads": {types.VulnDeserialization, []int{0}, types.SeverityCritical, "Do not unmarshal untrusted data."},

	// Path traversal.
	"open":          {types.VulnPathTraversal, []int{0}, types.SeverityHigh, "Validate and normalize the path against an allowed base directory before opening it."},
	"os.remove":     {types.VulnPathTraversal, []int{0}, types.SeverityHigh, "Validate and normalize the path against an allowed base directory."},
	"os.rename":     {types.VulnPathTraversal, []int{0, 1}, types.SeverityHigh, "Validate and normalize the path against an allowed base directory."},
	"shutil.rmtree": {types.VulnPathTraversal, []int{0}, types.SeverityCritical, "Validate and normalize the path against an allowed base directory."},
	"tarfile.extractall": {types.VulnPathTraversal, nil, types.SeverityCritical, "Validate archive member paths before extraction (zip-slip)."},
	"zipfile.extractall": {types.VulnPathTraversal, nil, types.SeverityCritical, "Validate archive member paths before extraction (zip-slip)."},

	// SSRF.
	"requests.get":       {types.VulnSSRF, []int{0}, types.SeverityHigh, "Validate the target URL against an allowlist before making the request."},
	"requests.post":      {types.VulnSSRF, []int{0}, types.SeverityHigh, "Validate the target URL against an allowlist before making the request."},
	"requests.request":   {types.VulnSSRF, []int{1}, types.SeverityHigh, "Validate the target URL against an allowlist before making the request."},
	"urllib.request.urlopen": {types.VulnSSRF, []int{0}, types.SeverityHigh, "Validate the target URL against an allowlist before making the request."},
	"httpx.get":           {types.VulnSSRF, []int{0}, types.SeverityHigh, "Validate the target URL against an allowlist before making the request."},
	"aiohttp.ClientSession.get": {types.VulnSSRF, []int{0}, types.SeverityHigh, "Validate the target URL against an allowlist before making the request."},

	// XSS.
	"render_template_string": {types.VulnXSS, []int{0}, types.SeverityHigh, "Use render_template with a static template file and autoescaping instead of building templates from input."},
	"mark_safe":              {types.VulnXSS, nil, types.SeverityHigh, "Avoid marking untrusted content as safe; rely on the template engine's autoescaping."},
	"HttpResponse":           {types.VulnXSS, []int{0}, types.SeverityMedium, "Escape untrusted content before writing it into an HTML response."},

	// Open redirect.
	"redirect": {types.VulnOpenRedirect, []int{0}, types.SeverityMedium, "Validate that redirect targets are relative or match an allowlist of hosts."},
}

// LookupSink returns the sink description for a fully-qualified callee
// name, if any call target in the table matches.
func LookupSink(name string) (SinkInfo, bool) {
	info, ok := sinkTable[name]
	return info, ok
}
