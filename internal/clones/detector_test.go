package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/types"
)

func defaultCloneConfig() Config {
	return Config{
		SimilarityThreshold: 0.8,
		LSHBands:            DefaultLSHBands,
		LSHRows:             DefaultLSHRows,
		Type1Threshold:      0.98,
		Type2RawMax:         0.9,
		AutoFixThreshold:    90,
		SuggestThreshold:    75,
	}
}

func notTest(string) bool { return false }

func TestDetectFindsRenamedClone(t *testing.T) {
	pfA := parseForClones(t, `
def sum_range(a, b, c):
    total = a + b
    for i in range(c):
        total += i
        if total > 100:
            total -= 10
    return total
`)
	defer pfA.Close()
	pfB := parseForClones(t, `
def accumulate_range(x, y, z):
    result = x + y
    for j in range(z):
        result += j
        if result > 100:
            result -= 10
    return result
`)
	defer pfB.Close()

	subtrees := append(ExtractFile(pfA), ExtractFile(pfB)...)
	require.Len(t, subtrees, 2)

	result := Detect(subtrees, defaultCloneConfig(), notTest)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, types.CloneType2, result.Pairs[0].CloneType)
	require.Len(t, result.Groups, 1)
	require.Len(t, result.Findings, 1)
}

func TestDetectNoPairBelowTwoSubtrees(t *testing.T) {
	pf := parseForClones(t, `
def compute(a, b, c):
    total = a + b
    for i in range(c):
        total += i
        if total > 100:
            total -= 10
    return total
`)
	defer pf.Close()

	subtrees := ExtractFile(pf)
	result := Detect(subtrees, defaultCloneConfig(), notTest)
	assert.Empty(t, result.Pairs)
	assert.Empty(t, result.Groups)
}

func TestDetectUnrelatedFunctionsNotClones(t *testing.T) {
	pfA := parseForClones(t, `
def sum_range(a, b, c):
    total = a + b
    for i in range(c):
        total += i
        if total > 100:
            total -= 10
    return total
`)
	defer pfA.Close()
	pfB := parseForClones(t, `
def fetch_user(session, user_id):
    response = session.get("/users/" + str(user_id))
    if response.status_code != 200:
        raise ValueError("not found")
    data = response.json()
    return data["name"]
`)
	defer pfB.Close()

	subtrees := append(ExtractFile(pfA), ExtractFile(pfB)...)
	require.Len(t, subtrees, 2)

	result := Detect(subtrees, defaultCloneConfig(), notTest)
	assert.Empty(t, result.Pairs)
}
