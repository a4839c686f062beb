package aggregator

import (
	"strings"

	"github.com/google/uuid"

	"github.com/standardbeagle/pyaudit/internal/clones"
	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/heuristics"
	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/taint"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// Aggregate implements eight-step merge: per-file metrics are
// concatenated and averaged, reference counts are merged across files, the
// post-merge heuristics run over the combined definition set, unused
// definitions are partitioned by def_type at the confidence threshold,
// class-method linking folds in methods of unused classes, and the clone
// and taint engines' findings are attached to produce the final
// types.AnalysisResult.
func Aggregate(
	results []FileResult,
	walkRes pyparse.WalkResult,
	cfg *config.Config,
	cloneResult clones.Result,
	taintFindings []taint.Finding,
	parseErrors []types.ParseError,
	deadLocals []taint.DeadLocal,
) *types.AnalysisResult {
	// Step 1: concatenate per-file metrics, averaging over files with
	// non-zero complexity/MI so empty or trivial files don't skew the mean.
	var fileMetrics []types.FileMetrics
	var raw types.RawMetrics
	var halstead types.HalsteadMetrics
	var totalDefs, totalIssues int
	var complexitySum, cognitiveSum, miSum float64
	var complexityCount, cognitiveCount, miCount int

	sourceByFile := make(map[string][]byte, len(results))
	allDefs := make([]types.Definition, 0)
	merged := make(types.RefCountMap)

	for _, fr := range results {
		if fr.Visit == nil {
			continue
		}
		sourceByFile[fr.Path] = fr.Source
		allDefs = append(allDefs, fr.Visit.Definitions...)
		merged.Merge(fr.Visit.References)

		raw.Add(fr.Visit.Raw)
		halstead.Add(fr.Visit.Halstead)
		totalDefs += len(fr.Visit.Definitions)
		totalIssues += len(fr.Danger) + len(fr.Quality) + len(fr.Secrets)

		fm := types.FileMetrics{
			File:             fr.Path,
			Raw:              fr.Visit.Raw,
			Halstead:         fr.Visit.Halstead,
			TotalDefinitions: len(fr.Visit.Definitions),
			TotalIssues:      len(fr.Danger) + len(fr.Quality) + len(fr.Secrets),
			LCOM4:            fr.Visit.LCOM4,
		}

		var fileComplexitySum, fileCognitiveSum float64
		var fileComplexityCount int
		for _, f := range fr.Visit.Functions {
			if f.CyclomaticComplexity > 0 {
				complexitySum += float64(f.CyclomaticComplexity)
				complexityCount++
				fileComplexitySum += float64(f.CyclomaticComplexity)
				fileComplexityCount++
			}
			if f.CognitiveComplexity > 0 {
				cognitiveSum += float64(f.CognitiveComplexity)
				cognitiveCount++
				fileCognitiveSum += float64(f.CognitiveComplexity)
			}
			if f.MaintainabilityIndex > 0 {
				miSum += f.MaintainabilityIndex
				miCount++
			}
		}
		if fileComplexityCount > 0 {
			fm.AverageComplexity = fileComplexitySum / float64(fileComplexityCount)
			fm.AverageCognitive = fileCognitiveSum / float64(fileComplexityCount)
		}
		if len(fr.Visit.Functions) > 0 {
			var fileMI float64
			var fileMICount int
			for _, f := range fr.Visit.Functions {
				if f.MaintainabilityIndex > 0 {
					fileMI += f.MaintainabilityIndex
					fileMICount++
				}
			}
			if fileMICount > 0 {
				fm.MaintainabilityIndex = fileMI / float64(fileMICount)
			}
		}
		fileMetrics = append(fileMetrics, fm)
	}

	// Step 2 already folded into the loop above (merged.Merge per file).

	// Step 3: reconcile each definition's own (flow-sensitive, file-local)
	// reference count against the project-wide merged count. Variables and
	// parameters keep their own zero: the Visitor already resolved every
	// reachable use within their (necessarily single-file) scope, so a
	// project-wide name collision must not resurrect them.
	for i := range allDefs {
		d := &allDefs[i]
		if d.DefType == types.DefVariable || d.DefType == types.DefParameter {
			continue
		}
		candidate := merged[d.FullName]
		if candidate > d.References {
			d.References = candidate
		}
		if d.References == 0 {
			if bySimple := merged[d.SimpleName]; bySimple > 0 {
				d.References = bySimple
			}
		}
	}

	// Step 4: post-merge heuristics (confidence penalties needing
	// cross-definition context, plus visitor/leave/transform reference bump).
	lineSource := heuristics.NewSourceLines(sourceByFile)
	heuristics.Score(allDefs, lineSource, heuristics.Options{ExcludeTests: !cfg.IncludeTests})
	heuristics.ApplyPostMergeHeuristics(allDefs)

	// Step 5: partition unused definitions (references == 0, confidence >=
	// threshold) by def_type.
	var unusedFunctions, unusedMethods, unusedImports, unusedClasses, unusedVariables, unusedParameters []types.Definition
	unusedClassNames := make(map[string]bool)

	for _, d := range allDefs {
		if d.References != 0 || d.Confidence < cfg.ConfidenceThreshold {
			continue
		}
		switch d.DefType {
		case types.DefFunction:
			unusedFunctions = append(unusedFunctions, d)
		case types.DefMethod:
			unusedMethods = append(unusedMethods, d)
		case types.DefImport:
			unusedImports = append(unusedImports, d)
		case types.DefClass:
			unusedClasses = append(unusedClasses, d)
			unusedClassNames[d.FullName] = true
		case types.DefVariable:
			unusedVariables = append(unusedVariables, d)
		case types.DefParameter:
			unusedParameters = append(unusedParameters, d)
		}
	}

	// Step 6: class-method linking — methods of an unused class join the
	// unused-methods list unless they're visitor-pattern dispatch targets
	// (visit_/leave_/transform_ prefixed, already reference-bumped in step 4
	// and therefore already excluded by the references==0 filter above if
	// truly called; this second pass only catches methods that never showed
	// up as references at all because the enclosing class itself is dead).
	for _, d := range allDefs {
		if d.DefType != types.DefMethod || d.References != 0 || d.Confidence < cfg.ConfidenceThreshold {
			continue
		}
		owner := enclosingFullName(d.FullName)
		if !unusedClassNames[owner] {
			continue
		}
		if hasVisitorPrefix(d.SimpleName) {
			continue
		}
		if !containsDef(unusedMethods, d) {
			unusedMethods = append(unusedMethods, d)
		}
	}

	// Step 7: taint findings were already run by the caller across every
	// retained file (a pragmatic simplification of chunked-AST-
	// dropping memory model: cross-file import resolution needs every file's
	// AST alive at once, so the taint pass holds all parsed files for its
	// one pass rather than being re-chunked; see DESIGN.md).
	var reportedTaint []types.TaintFinding
	for _, tf := range taintFindings {
		reportedTaint = append(reportedTaint, tf.ToTypesFinding())
	}
	for _, dl := range deadLocals {
		reportedTaint = append(reportedTaint, types.TaintFinding{
			Source:      types.TaintSource{Kind: "function_param", Name: dl.Name, Line: dl.Line},
			Sink:        types.TaintSink{Name: "unused_pattern_capture", Line: dl.Line},
			FlowPath:    []string{dl.Name},
			VulnType:    "",
			Severity:    types.SeverityLow,
			File:        dl.File,
			Remediation: "pattern capture \"" + dl.Name + "\" is never read after the match arm binds it",
		})
	}

	var allDanger, allQuality []types.Finding
	var allSecrets []types.SecretFinding
	for _, fr := range results {
		allDanger = append(allDanger, fr.Danger...)
		allQuality = append(allQuality, fr.Quality...)
		allSecrets = append(allSecrets, fr.Secrets...)
	}

	totalIssues += len(cloneResult.Findings)

	countsByCategory := map[string]int{
		"danger":  len(allDanger),
		"quality": len(allQuality),
		"secrets": len(allSecrets),
		"clones":  len(cloneResult.Findings),
		"taint":   len(reportedTaint),
	}

	summary := types.AnalysisSummary{
		TotalFiles:         len(walkRes.Files),
		TotalDirectories:   walkRes.DirectoryCount,
		TotalLinesAnalyzed: raw.LOC,
		TotalDefinitions:   totalDefs,
		CountsByCategory:   countsByCategory,
		RawMetrics:         raw,
		HalsteadMetrics:    halstead,
	}
	if complexityCount > 0 {
		summary.AverageComplexity = complexitySum / float64(complexityCount)
	}
	if cognitiveCount > 0 {
		summary.AverageCognitive = cognitiveSum / float64(cognitiveCount)
	}
	if miCount > 0 {
		summary.AverageMI = miSum / float64(miCount)
	}

	// Step 8: emit the result.
	return &types.AnalysisResult{
		RunID: uuid.NewString(),

		UnusedFunctions:  unusedFunctions,
		UnusedMethods:    unusedMethods,
		UnusedImports:    unusedImports,
		UnusedClasses:    unusedClasses,
		UnusedVariables:  unusedVariables,
		UnusedParameters: unusedParameters,

		Secrets:       allSecrets,
		Danger:        allDanger,
		Quality:       allQuality,
		TaintFindings: reportedTaint,
		ParseErrors:   parseErrors,
		Clones:        cloneResult.Findings,

		FileMetrics: fileMetrics,

		AnalysisSummary: summary,
	}
}

// enclosingFullName strips the last dotted segment of a qualified name,
// returning the owning scope's full name (e.g. a method's enclosing class).
func enclosingFullName(fullName string) string {
	idx := strings.LastIndexByte(fullName, '.')
	if idx < 0 {
		return ""
	}
	return fullName[:idx]
}

func hasVisitorPrefix(name string) bool {
	return strings.HasPrefix(name, "visit_") || strings.HasPrefix(name, "leave_") || strings.HasPrefix(name, "transform_")
}

func containsDef(defs []types.Definition, d types.Definition) bool {
	for _, existing := range defs {
		if existing.FullName == d.FullName && existing.Line == d.Line {
			return true
		}
	}
	return false
}
