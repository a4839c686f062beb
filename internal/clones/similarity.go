package clones

import (
	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// editCosts mirrors cytoscnpy/src/clones/similarity.rs's
// TreeSimilarity{insert_cost,delete_cost,update_cost}: insert/delete cost 1,
// a label-only update (same kind, different label) costs 1, and a
// kind-mismatch substitution costs 2.
const (
	insertCost      = 1
	deleteCost      = 1
	updateLabelCost = 1
	updateKindCost  = 2
)

// nearMissIdentifierSimilarity is the Jaro-Winkler cutover above which two
// differently-spelled identifiers (e.g. "userId" vs "user_id", or a simple
// typo) are treated as the same slot rather than a full label substitution,
// so Type3 near-miss clones aren't penalized purely for a renamed variable
// that a human reviewer would still call "the same thing".
const nearMissIdentifierSimilarity = 0.85

// EditDistance computes a Levenshtein-style tree edit distance between two
// flattened (kind,label) sequences. fuzzyIdentifiers enables the near-miss
// identifier-label discount; it must only be set for the raw (Type1)
// normalization, where leaf labels still carry the original identifier
// text — Type2/Type3's abstracted "VAR_N" labels would otherwise collide
// under edit-distance for unrelated variable slots.
func EditDistance(a, b []LabeledNode, fuzzyIdentifiers bool) int {
	n, m := len(a), len(b)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j * insertCost
	}
	for i := 1; i <= n; i++ {
		cur[0] = i * deleteCost
		for j := 1; j <= m; j++ {
			subCost := substCost(a[i-1], b[j-1], fuzzyIdentifiers)
			cur[j] = min3(
				prev[j]+deleteCost,
				cur[j-1]+insertCost,
				prev[j-1]+subCost,
			)
		}
		prev, cur = cur, prev
	}
	return prev[m]
}

func substCost(a, b LabeledNode, fuzzyIdentifiers bool) int {
	if a.Kind != b.Kind {
		return updateKindCost
	}
	if a.Label == b.Label {
		return 0
	}
	if fuzzyIdentifiers && a.Kind == "identifier" && isNearMissIdentifier(a.Label, b.Label) {
		return 0
	}
	return updateLabelCost
}

// isNearMissIdentifier reports whether a and b are close enough (Jaro-
// Winkler similarity) to be considered the same renamed slot.
func isNearMissIdentifier(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return false
	}
	return float64(score) >= nearMissIdentifierSimilarity
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Similarity converts an edit distance into a 0..1 similarity score,
// normalized by the larger tree's size.
func Similarity(dist, sizeA, sizeB int) float64 {
	maxSize := sizeA
	if sizeB > maxSize {
		maxSize = sizeB
	}
	if maxSize == 0 {
		return 1
	}
	sim := 1 - float64(dist)/float64(maxSize)
	if sim < 0 {
		sim = 0
	}
	return sim
}

// type2IdMin is the identifier-normalized similarity floor classify() in
// cytoscnpy/src/clones/similarity.rs hardcodes for Type2: 0.95, well above
// the general SimilarityThreshold used only as the Type3 floor.
const type2IdMin = 0.95

// ClassifyThresholds mirrors the config.Clones tunables used to classify a
// candidate pair by its raw and identifier-normalized similarities.
type ClassifyThresholds struct {
	Type1Threshold float64 // raw_sim >= this -> Type1
	Type2RawMax    float64 // id_sim >= type2IdMin && raw_sim < this -> Type2
	SimilarityThreshold float64
}

// Classify reproduces cytoscnpy/src/clones/similarity.rs's classify():
// Type1 requires near-exact raw similarity; Type2 requires a near-exact
// identifier-normalized match (id_sim >= 0.95) whose raw similarity still
// falls short of Type1 (i.e. only names/literals differ); everything else
// above the minimum similarity threshold is Type3.
func Classify(rawSim, idSim float64, th ClassifyThresholds) (types.CloneType, bool) {
	if rawSim >= th.Type1Threshold {
		return types.CloneType1, true
	}
	if idSim >= type2IdMin && rawSim < th.Type2RawMax {
		return types.CloneType2, true
	}
	if idSim >= th.SimilarityThreshold {
		return types.CloneType3, true
	}
	return "", false
}
