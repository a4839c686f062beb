package taint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

func parseProjectFile(t *testing.T, pool *pyparse.ParserPool, path, src string) *pyparse.ParsedFile {
	t.Helper()
	pf, parseErr := pyparse.ParseSource(pool, path, []byte(src))
	require.NotNil(t, pf)
	if parseErr != nil {
		t.Fatalf("unexpected parse error in %s: %v", path, parseErr)
	}
	return pf
}

func TestAnalyzeProjectCrossFileTaintFlow(t *testing.T) {
	pool := pyparse.NewParserPool()
	helpers := parseProjectFile(t, pool, "/root/helpers.py", `
def passthrough(value):
    return value
`)
	app := parseProjectFile(t, pool, "/root/app.py", `
import helpers

def handler():
    cmd = input()
    safe = helpers.passthrough(cmd)
    os.system(safe)
`)
	defer helpers.Close()
	defer app.Close()

	findings, _ := AnalyzeProject("/root", []*pyparse.ParsedFile{helpers, app})

	require.Len(t, findings, 1)
	assert.Equal(t, types.VulnCommandInjection, findings[0].VulnType)
	assert.Equal(t, "/root/app.py", findings[0].File)
}

func TestAnalyzeProjectNoFindingsWhenNoSourceReachesSink(t *testing.T) {
	pool := pyparse.NewParserPool()
	app := parseProjectFile(t, pool, "/root/app.py", `
def handler():
    cmd = "ls -la"
    os.system(cmd)
`)
	defer app.Close()

	findings, _ := AnalyzeProject("/root", []*pyparse.ParsedFile{app})
	assert.Empty(t, findings)
}

func TestAnalyzeProjectDeadLocalInMatchCase(t *testing.T) {
	pool := pyparse.NewParserPool()
	app := parseProjectFile(t, pool, "/root/app.py", `
def handler(event):
    match event:
        case {"type": "click", "x": x, "y": y}:
            print(x)
`)
	defer app.Close()

	_, deadLocals := AnalyzeProject("/root", []*pyparse.ParsedFile{app})
	var names []string
	for _, d := range deadLocals {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "y")
	assert.NotContains(t, names, "x")
}
