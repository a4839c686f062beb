package clones

import (
	"sort"
	"strings"

	"github.com/standardbeagle/pyaudit/internal/types"
)

// Config is the subset of config.Clones the detector needs, kept local to
// avoid internal/clones depending on internal/config for a handful of
// scalars.
type Config struct {
	SimilarityThreshold float64
	LSHBands            int
	LSHRows             int
	Type1Threshold      float64
	Type2RawMax         float64
	AutoFixThreshold    int
	SuggestThreshold    int
}

// Result is the Clone Detection Engine's output: every classified pair,
// their union-find groups, and the per-pair Finding-shaped reports.
type Result struct {
	Pairs    []types.ClonePair
	Groups   []types.CloneGroup
	Findings []types.CloneFinding
}

// Detect runs the full 5-phase pipeline of over subtrees
// gathered from every file in a run: LSH candidate pruning (on the
// identifier-normalized signature), per-candidate raw+id similarity, Type
// classification, union-find grouping, and confidence scoring.
func Detect(subtrees []Subtree, cfg Config, isTestFile func(string) bool) Result {
	n := len(subtrees)
	if n < 2 {
		return Result{}
	}

	rawTrees := make([]*NormalizedNode, n)
	idTrees := make([]*NormalizedNode, n)
	idSignatures := make([][]uint64, n)

	hasher := NewLshHasher(cfg.LSHBands, cfg.LSHRows)
	rawNorm := ForCloneType(types.CloneType1)
	idNorm := ForCloneType(types.CloneType2)

	for i, st := range subtrees {
		rawTrees[i] = rawNorm.Normalize(st.Node, st.Src)
		idTrees[i] = idNorm.Normalize(st.Node, st.Src)
		shingles := GenerateShingles(idTrees[i].KindSequence())
		idSignatures[i] = hasher.Signature(shingles)
	}

	candidates := hasher.FindCandidates(idSignatures)

	th := ClassifyThresholds{
		Type1Threshold:      cfg.Type1Threshold,
		Type2RawMax:         cfg.Type2RawMax,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}
	scorer := NewConfidenceScorer(cfg.AutoFixThreshold, cfg.SuggestThreshold)

	var pairs []types.ClonePair
	uf := newIntUnionFind(n)

	for _, cand := range candidates {
		i, j := cand[0], cand[1]
		rawFlatA, rawFlatB := rawTrees[i].Flatten(), rawTrees[j].Flatten()
		idFlatA, idFlatB := idTrees[i].Flatten(), idTrees[j].Flatten()

		rawDist := EditDistance(rawFlatA, rawFlatB, true)
		rawSim := Similarity(rawDist, len(rawFlatA), len(rawFlatB))
		idDist := EditDistance(idFlatA, idFlatB, false)
		idSim := Similarity(idDist, len(idFlatA), len(idFlatB))

		cloneType, ok := Classify(rawSim, idSim, th)
		if !ok {
			continue
		}

		pair := types.ClonePair{
			InstanceA:    subtrees[i].Instance,
			InstanceB:    subtrees[j].Instance,
			Similarity:   idSim,
			CloneType:    cloneType,
			EditDistance: idDist,
		}
		pairs = append(pairs, pair)
		uf.union(i, j)
	}

	groups := buildGroups(uf, subtrees, pairs)
	findings := buildFindings(pairs, scorer, isTestFile)

	return Result{Pairs: pairs, Groups: groups, Findings: findings}
}

// buildGroups unions every pair's endpoints (already done during Detect)
// and emits one CloneGroup per connected component with 2+ members,
// canonical = first by (file, start byte), exactly as 
// requires. This is a from-scratch implementation: cytoscnpy's own
// group_clones is an unimplemented stub in the reference source.
func buildGroups(uf *intUnionFind, subtrees []Subtree, pairs []types.ClonePair) []types.CloneGroup {
	components := make(map[int][]int)
	for i := range subtrees {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	pairSim := make(map[[2]int]float64)
	pairType := make(map[[2]int]types.CloneType)
	indexOf := make(map[types.CloneInstance]int)
	for i, st := range subtrees {
		indexOf[st.Instance] = i
	}
	for _, p := range pairs {
		a, b := indexOf[p.InstanceA], indexOf[p.InstanceB]
		if a > b {
			a, b = b, a
		}
		pairSim[[2]int{a, b}] = p.Similarity
		pairType[[2]int{a, b}] = p.CloneType
	}

	var groups []types.CloneGroup
	id := 0
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(a, b int) bool {
			ia, ib := subtrees[members[a]].Instance, subtrees[members[b]].Instance
			if ia.File != ib.File {
				return ia.File < ib.File
			}
			return ia.StartByte < ib.StartByte
		})

		instances := make([]types.CloneInstance, len(members))
		var simSum float64
		var simCount int
		var dominant types.CloneType
		dominantCount := map[types.CloneType]int{}
		for k, m := range members {
			instances[k] = subtrees[m].Instance
		}
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				ia, ib := members[a], members[b]
				if ia > ib {
					ia, ib = ib, ia
				}
				key := [2]int{ia, ib}
				if sim, ok := pairSim[key]; ok {
					simSum += sim
					simCount++
					dominantCount[pairType[key]]++
				}
			}
		}
		best := 0
		for t, c := range dominantCount {
			if c > best {
				best = c
				dominant = t
			}
		}
		avg := 0.0
		if simCount > 0 {
			avg = simSum / float64(simCount)
		}
		groups = append(groups, types.CloneGroup{
			ID:             id,
			Instances:      instances,
			CanonicalIndex: 0,
			CloneType:      dominant,
			AvgSimilarity:  avg,
		})
		id++
	}

	sort.Slice(groups, func(a, b int) bool {
		ca, cb := groups[a].Canonical(), groups[b].Canonical()
		if ca.File != cb.File {
			return ca.File < cb.File
		}
		return ca.StartByte < cb.StartByte
	})
	for i := range groups {
		groups[i].ID = i
	}
	return groups
}

// buildFindings converts each pair into a CloneFinding, grounded on
// cytoscnpy/src/clones/types.rs's CloneFinding::from_pair (rule IDs
// CSP-C100/200/300 by clone type, duplicate-vs-similar message phrasing).
func buildFindings(pairs []types.ClonePair, scorer ConfidenceScorer, isTestFile func(string) bool) []types.CloneFinding {
	var findings []types.CloneFinding
	for _, p := range pairs {
		ruleID := ruleIDForType(p.CloneType)
		score := scorer.Score(p.Similarity, p.CloneType, p.EditDistance, FixContext{
			IsTestFile: isTestFile(p.InstanceB.File),
			SameFile:   p.IsSameFile(),
		})
		decision := scorer.Decide(score)

		related := p.InstanceA
		message, suggestion := findingMessage(p, decision)
		findings = append(findings, types.CloneFinding{
			Finding: types.Finding{
				RuleID: ruleID, Category: "clone", Message: message,
				File: p.InstanceB.File, Line: p.InstanceB.StartLine, Severity: severityForType(p.CloneType),
			},
			CloneType:     p.CloneType,
			Similarity:    p.Similarity,
			Name:          p.InstanceB.Name,
			RelatedClone:  &related,
			FixConfidence: score,
			IsDuplicate:   p.CloneType == types.CloneType1,
			Suggestion:    suggestion,
			NodeKind:      p.InstanceB.NodeKind,
		})
	}
	return findings
}

func ruleIDForType(t types.CloneType) string {
	switch t {
	case types.CloneType1:
		return "CSP-C100"
	case types.CloneType2:
		return "CSP-C200"
	default:
		return "CSP-C300"
	}
}

func severityForType(t types.CloneType) types.Severity {
	switch t {
	case types.CloneType1:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

func findingMessage(p types.ClonePair, decision FixDecision) (message, suggestion string) {
	var b strings.Builder
	if p.CloneType == types.CloneType1 {
		b.WriteString("exact duplicate of ")
	} else {
		b.WriteString("similar to ")
	}
	b.WriteString(p.InstanceA.File)
	b.WriteString(":")
	b.WriteString(itoaClone(p.InstanceA.StartLine))

	switch decision {
	case DecisionAutoFix:
		suggestion = "safe to extract a shared helper and replace both call sites"
	case DecisionSuggest:
		suggestion = "review before extracting a shared helper"
	default:
		suggestion = "flagged only; manual review recommended before any refactor"
	}
	return b.String(), suggestion
}

func itoaClone(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// intUnionFind is a minimal disjoint-set over subtree indices, the int-
// keyed counterpart to internal/visitor/lcom4.go's string-keyed unionFind.
type intUnionFind struct {
	parent []int
}

func newIntUnionFind(n int) *intUnionFind {
	uf := &intUnionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *intUnionFind) find(x int) int {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *intUnionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}
