package taint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/types"
)

func TestCommandInjectionFromInput(t *testing.T) {
	src := `def run():
    cmd = input()
    os.system(cmd)
`
	findings, _ := analyze(t, src)
	require.Len(t, findings, 1)
	assert.Equal(t, types.VulnCommandInjection, findings[0].VulnType)
	assert.Equal(t, "input", findings[0].Source.Kind)
	assert.Equal(t, []string{"input()", "cmd"}, findings[0].FlowPath)
}

func TestSqlInjectionFromRequestArgs(t *testing.T) {
	src := `def handler():
    name = request.args.get("name")
    cursor.execute("SELECT * FROM users WHERE name = " + name)
`
	findings, _ := analyze(t, src)
	require.Len(t, findings, 1)
	assert.Equal(t, types.VulnSQLInjection, findings[0].VulnType)
	assert.Equal(t, "flask_request", findings[0].Source.Kind)
}

func TestSanitizedValueDoesNotReachSink(t *testing.T) {
	src := `def run():
    cmd = input()
    cmd = sanitize(cmd)
    os.system(cmd)
`
	findings, _ := analyze(t, src)
	assert.Empty(t, findings)
}

func TestUntaintedLiteralDoesNotReachSink(t *testing.T) {
	src := `def run():
    os.system("ls -la")
`
	findings, _ := analyze(t, src)
	assert.Empty(t, findings)
}

func TestTaintSurvivesIfBranchMerge(t *testing.T) {
	src := `def run(flag):
    cmd = input()
    if flag:
        other = cmd
    else:
        other = cmd
    os.system(other)
`
	findings, _ := analyze(t, src)
	require.Len(t, findings, 1)
	assert.Equal(t, types.VulnCommandInjection, findings[0].VulnType)
}

func TestFastAPIParamDefaultSeedsSource(t *testing.T) {
	src := `def handler(q: str = Query(...)):
    os.system(q)
`
	findings, _ := analyze(t, src)
	require.Len(t, findings, 1)
	assert.Equal(t, "fastapi_param", findings[0].Source.Kind)
}
