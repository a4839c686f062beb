package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

func parseForClones(t *testing.T, src string) *pyparse.ParsedFile {
	t.Helper()
	pool := pyparse.NewParserPool()
	pf, parseErr := pyparse.ParseSource(pool, "a.py", []byte(src))
	require.NotNil(t, pf)
	if parseErr != nil {
		t.Fatalf("unexpected parse error: %v", parseErr)
	}
	return pf
}

func TestExtractFileSkipsTrivialBodies(t *testing.T) {
	pf := parseForClones(t, "def tiny():\n    return 1\n")
	defer pf.Close()

	subtrees := ExtractFile(pf)
	assert.Empty(t, subtrees, "a one-statement function is below minNodes and should not be extracted")
}

func TestExtractFileFindsFunctionsAndMethods(t *testing.T) {
	src := `
def compute(a, b, c):
    total = a + b
    for i in range(c):
        total += i
        if total > 100:
            total -= 10
    return total

class Thing:
    def method(self, a, b, c):
        total = a + b
        for i in range(c):
            total += i
            if total > 100:
                total -= 10
        return total
`
	pf := parseForClones(t, src)
	defer pf.Close()

	subtrees := ExtractFile(pf)
	require.Len(t, subtrees, 2)

	var kinds []types.NodeKind
	for _, s := range subtrees {
		kinds = append(kinds, s.Instance.NodeKind)
	}
	assert.Contains(t, kinds, types.NodeFunction)
	assert.Contains(t, kinds, types.NodeMethod)
}
