// Package aggregator implements the per-file worker pipeline and the
// Aggregator: it walks the project, runs the Visitor, Rule
// Engine, Secret Scanner, and clone-subtree extraction over every file in
// bounded parallelism, then serially merges references, applies the
// post-merge heuristics, runs the taint engine, and emits the final
// types.AnalysisResult.
package aggregator

import (
	"context"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/pyaudit/internal/clones"
	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/pyparse"
	"github.com/standardbeagle/pyaudit/internal/rules"
	"github.com/standardbeagle/pyaudit/internal/taint"
	"github.com/standardbeagle/pyaudit/internal/types"
	"github.com/standardbeagle/pyaudit/internal/visitor"
)

// FileResult is one file's worker output: everything the Aggregator needs
// once the parsed AST itself is no longer held.
type FileResult struct {
	Path    string
	Source  []byte
	Visit   *visitor.Result
	Danger  []types.Finding
	Quality []types.Finding
	Secrets []types.SecretFinding
}

// Run walks paths under cfg.Project.Root, analyzes every admitted file, and
// returns the merged AnalysisResult. Uses a bounded-concurrency idiom (a
// semaphore guarding a worker pool), expressed here through
// golang.org/x/sync/errgroup's SetLimit rather than a hand-rolled channel
// semaphore.
func Run(paths []string, cfg *config.Config) (*types.AnalysisResult, error) {
	var gitignore *config.GitignoreParser
	if cfg.Project.Root != "" {
		gp := config.NewGitignoreParser()
		if err := gp.LoadGitignore(cfg.Project.Root); err == nil {
			gitignore = gp
		}
	}

	walkRes, err := pyparse.Walk(pyparse.WalkOptions{
		Roots:          paths,
		Exclude:        cfg.ExcludeFolders,
		Include:        cfg.IncludeFolders,
		AdmitNotebooks: cfg.IncludeIPyNB,
		Gitignore:      gitignore,
	})
	if err != nil {
		return nil, err
	}

	secretScanner := rules.NewSecretScanner(cfg.Secrets)
	ruleEngine := rules.NewEngine(rules.AllRules(rules.QualityThresholds{
		MaxArgs:    cfg.Quality.MaxArgs,
		MaxLines:   cfg.Quality.MaxLines,
		MaxNesting: cfg.Quality.MaxNesting,
	}))
	metricThresholds := rules.QualityMetricThresholds{
		MaxComplexity: cfg.Quality.MaxComplexity,
		MaxCognitive:  cfg.Quality.MaxCognitive,
		MaxNesting:    cfg.Quality.MaxNesting,
		MaxLCOM4:      4,
	}

	n := len(walkRes.Files)
	results := make([]FileResult, n)
	subtreesByFile := make([][]clones.Subtree, n)
	parsedFiles := make([]*pyparse.ParsedFile, n)

	var mu sync.Mutex
	var parseErrors []types.ParseError

	limit := cfg.Performance.ParallelFileWorkers
	if limit <= 0 {
		limit = 1
	}
	pool := pyparse.NewParserPool()

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(limit)

	for i, path := range walkRes.Files {
		i, path := i, path
		g.Go(func() error {
			var pf *pyparse.ParsedFile
			var perr *types.ParseError
			if strings.HasSuffix(path, ".ipynb") {
				pf, perr = parseNotebook(pool, path)
			} else {
				pf, perr = pyparse.ParseFile(pool, path)
			}
			if perr != nil {
				mu.Lock()
				parseErrors = append(parseErrors, *perr)
				mu.Unlock()
				if pf == nil {
					return nil
				}
			}

			isTest := isTestFile(path)
			vres := visitor.Visit(pf, cfg.Project.Root)

			var danger, quality []types.Finding
			if cfg.EnableDanger || cfg.EnableQuality {
				ctx := rules.NewContext(path, pf.Source, pf.Lines, isTest)
				findings := ruleEngine.Run(pf.Root, ctx)
				for _, f := range findings {
					if f.Category == "quality" {
						if cfg.EnableQuality {
							quality = append(quality, f)
						}
						continue
					}
					if cfg.EnableDanger {
						danger = append(danger, f)
					}
				}
				if cfg.EnableQuality {
					quality = append(quality, rules.MetricFindings(path, vres.Functions, vres.LCOM4, metricThresholds)...)
				}
			}

			var secrets []types.SecretFinding
			if cfg.EnableSecrets {
				secrets = secretScanner.Scan(path, pf.Source, isTest)
			}

			results[i] = FileResult{Path: path, Source: pf.Source, Visit: vres, Danger: danger, Quality: quality, Secrets: secrets}
			subtreesByFile[i] = clones.ExtractFile(pf)

			if cfg.EnableTaint {
				parsedFiles[i] = pf
			} else {
				pf.Close()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var allSubtrees []clones.Subtree
	for _, st := range subtreesByFile {
		allSubtrees = append(allSubtrees, st...)
	}
	cloneResult := clones.Detect(allSubtrees, clones.Config{
		SimilarityThreshold: cfg.Clones.SimilarityThreshold,
		LSHBands:            cfg.Clones.LSHBands,
		LSHRows:             cfg.Clones.LSHRows,
		Type1Threshold:      cfg.Clones.Type1Threshold,
		Type2RawMax:         cfg.Clones.Type2RawMax,
		AutoFixThreshold:    cfg.Clones.AutoFixThreshold,
		SuggestThreshold:    cfg.Clones.SuggestThreshold,
	}, isTestFile)

	var taintFindings []taint.Finding
	var deadLocals []taint.DeadLocal
	if cfg.EnableTaint {
		var liveFiles []*pyparse.ParsedFile
		for _, pf := range parsedFiles {
			if pf != nil {
				liveFiles = append(liveFiles, pf)
			}
		}
		taintFindings, deadLocals = taint.AnalyzeProject(cfg.Project.Root, liveFiles)
		for _, pf := range liveFiles {
			pf.Close()
		}
	}

	return Aggregate(results, walkRes, cfg, cloneResult, taintFindings, parseErrors, deadLocals), nil
}

// parseNotebook re-projects a .ipynb file to Python-equivalent source before
// handing it to the same tree-sitter parse path every .py file goes through.
func parseNotebook(pool *pyparse.ParserPool, path string) (*pyparse.ParsedFile, *types.ParseError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ParseError{File: path, Error: "unreadable file: " + err.Error()}
	}
	src, lineMap, err := pyparse.ExtractNotebookSource(raw)
	if err != nil {
		return nil, &types.ParseError{File: path, Error: err.Error()}
	}
	pf, perr := pyparse.ParseSource(pool, path, src)
	if pf != nil {
		pf.LineMap = lineMap
	}
	return pf, perr
}

func isTestFile(path string) bool {
	lower := strings.ToLower(path)
	base := lower
	if idx := strings.LastIndexByte(lower, '/'); idx >= 0 {
		base = lower[idx+1:]
	}
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, seg := range strings.Split(lower, "/") {
		if seg == "tests" || seg == "test" {
			return true
		}
	}
	return false
}
