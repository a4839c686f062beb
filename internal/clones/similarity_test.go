package clones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pyaudit/internal/types"
)

func TestEditDistanceTreatsRenamedTypoIdentifierAsNoCost(t *testing.T) {
	a := []LabeledNode{{Kind: "identifier", Label: "userId", HasLabel: true}}
	b := []LabeledNode{{Kind: "identifier", Label: "userid", HasLabel: true}}

	fuzzy := EditDistance(a, b, true)
	exact := EditDistance(a, b, false)

	assert.Equal(t, 0, fuzzy, "a near-miss rename should cost nothing under fuzzy identifier matching")
	assert.Equal(t, updateLabelCost, exact, "without fuzzy matching the differing label still costs a substitution")
}

func TestEditDistanceStillPenalizesUnrelatedIdentifiers(t *testing.T) {
	a := []LabeledNode{{Kind: "identifier", Label: "userId", HasLabel: true}}
	b := []LabeledNode{{Kind: "identifier", Label: "responseBuffer", HasLabel: true}}

	fuzzy := EditDistance(a, b, true)
	assert.Equal(t, updateLabelCost, fuzzy, "unrelated identifiers must not be discounted just because fuzzy matching is on")
}

func TestClassifyType2RequiresNearExactIdSimilarity(t *testing.T) {
	th := ClassifyThresholds{Type1Threshold: 0.95, Type2RawMax: 0.9, SimilarityThreshold: 0.8}

	cloneType, ok := Classify(0.6, 0.86, th)
	require.True(t, ok, "id_sim above the general threshold but below 0.95 must still classify")
	assert.Equal(t, types.CloneType3, cloneType, "id_sim in [0.8, 0.95) with low raw_sim is Type3, not Type2")

	cloneType, ok = Classify(0.6, 0.97, th)
	require.True(t, ok)
	assert.Equal(t, types.CloneType2, cloneType, "id_sim >= 0.95 with raw_sim below Type2RawMax is Type2")
}

func TestEditDistanceFuzzyMatchingIgnoresAbstractedVarSlots(t *testing.T) {
	a := []LabeledNode{{Kind: "identifier", Label: "VAR_0", HasLabel: true}}
	b := []LabeledNode{{Kind: "identifier", Label: "VAR_1", HasLabel: true}}

	dist := EditDistance(a, b, false)
	assert.Equal(t, updateLabelCost, dist, "Type2/Type3 comparisons must pass fuzzyIdentifiers=false so distinct VAR_N slots are never discounted")
}
