package clones

import "github.com/standardbeagle/pyaudit/internal/types"

// FixContext is the set of additive/subtractive signals a clone pair's
// fix-confidence score is built from, grounded on
// cytoscnpy/src/clones/confidence.rs's FixContext.
type FixContext struct {
	IsTestFile             bool
	SameFile               bool
	CanonicalHasDocstring  bool
	ControlFlowDiffers     bool
	StructuralMatchVerified bool
	HasInterleavedComments bool
	DecoratorsDiffer       bool
	DeeplyNested           bool
	CFGValidated           bool
}

// ConfidenceScorer reproduces confidence.rs's ConfidenceScorer: a base
// score of 50, adjusted additively by similarity tier, clone-type bonus,
// and the FixContext signals, clamped to [0,100] and compared against the
// auto-fix/suggest decision thresholds.
type ConfidenceScorer struct {
	AutoFixThreshold int
	SuggestThreshold int
}

// NewConfidenceScorer builds a scorer from config.Clones' tunables.
func NewConfidenceScorer(autoFixThreshold, suggestThreshold int) ConfidenceScorer {
	return ConfidenceScorer{AutoFixThreshold: autoFixThreshold, SuggestThreshold: suggestThreshold}
}

// FixDecision is the scorer's recommendation for one clone pair.
type FixDecision string

const (
	DecisionAutoFix FixDecision = "AutoFix"
	DecisionSuggest FixDecision = "Suggest"
	DecisionSuppress FixDecision = "Suppress"
)

// Score computes the 0..100 fix-confidence for a pair of the given
// similarity and clone type under ctx, following confidence.rs factor by
// factor.
func (s ConfidenceScorer) Score(similarity float64, cloneType types.CloneType, editDistance int, ctx FixContext) int {
	score := 50

	switch {
	case similarity >= 0.99:
		score += 30
	case similarity >= 0.95:
		score += 20
	case similarity >= 0.90:
		score += 10
	default:
		score -= 30
	}

	switch cloneType {
	case types.CloneType1:
		score += 25
	case types.CloneType2:
		score += 15
	case types.CloneType3:
		score -= 10
	}

	if ctx.IsTestFile {
		score -= 20
	}
	if ctx.SameFile {
		score += 10
	}
	if ctx.CanonicalHasDocstring {
		score += 10
	}
	if editDistance <= 3 {
		score += 15
	} else if editDistance > 20 {
		score -= 20
	}
	if ctx.ControlFlowDiffers {
		score -= 40
	}
	if ctx.StructuralMatchVerified {
		score += 20
	}
	if ctx.HasInterleavedComments {
		score -= 15
	}
	if ctx.DecoratorsDiffer {
		score -= 20
	}
	if ctx.DeeplyNested {
		score -= 10
	}
	if ctx.CFGValidated {
		score += 15
	}

	return clamp(score, 0, 100)
}

// Decide maps a score to the AutoFix/Suggest/Suppress decision.
func (s ConfidenceScorer) Decide(score int) FixDecision {
	switch {
	case score >= s.AutoFixThreshold:
		return DecisionAutoFix
	case score >= s.SuggestThreshold:
		return DecisionSuggest
	default:
		return DecisionSuppress
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
