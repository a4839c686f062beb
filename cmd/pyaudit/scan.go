package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pyaudit/internal/aggregator"
	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/types"
)

// scanCommand runs the full pipeline and emits the JSON report,
// enforcing the CI gate (exit 1) when configured.
func scanCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.BoolFlag{Name: "watch", Usage: "Re-run on file change (fsnotify)"},
	}, commonFlags...)

	return &cli.Command{
		Name:  "scan",
		Usage: "Run the full analysis: unused code, danger patterns, quality, secrets, clones, taint",
		Flags: flags,
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				paths = []string{"."}
			}
			if err := validatePaths(paths); err != nil {
				return err
			}

			cfg, err := loadConfig(paths)
			if err != nil {
				return err
			}
			cfg.Project.Root = paths[0]
			applyCommonOverrides(c, cfg)

			if c.Bool("watch") {
				return watchAndScan(paths, cfg)
			}

			result, err := runScanOnce(paths, cfg)
			if err != nil {
				return newExitError(exitUnexpected, "scan failed: %v", err)
			}
			if err := emitJSON(result); err != nil {
				return newExitError(exitUnexpected, "emit report: %v", err)
			}
			return enforceCIGate(cfg, result)
		},
	}
}

func runScanOnce(paths []string, cfg *config.Config) (*types.AnalysisResult, error) {
	if logger != nil {
		logger.Info("scan starting", zapField("paths", fmt.Sprint(paths)))
	}
	start := time.Now()
	result, err := aggregator.Run(paths, cfg)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("scan complete", zapField("elapsed", time.Since(start).String()),
			zapField("files", fmt.Sprint(result.AnalysisSummary.TotalFiles)))
	}
	return result, nil
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// enforceCIGate applies CI-gate exit condition: exit 1 when
// the unused-code percentage exceeds fail_threshold_percent, or any
// function's cyclomatic complexity exceeds per_block_complexity_ceiling.
func enforceCIGate(cfg *config.Config, result *types.AnalysisResult) error {
	if cfg.CI.FailThresholdPercent > 0 {
		unused := len(result.UnusedFunctions) + len(result.UnusedMethods) + len(result.UnusedImports) +
			len(result.UnusedClasses) + len(result.UnusedVariables) + len(result.UnusedParameters)
		total := result.AnalysisSummary.TotalDefinitions
		if total > 0 {
			pct := float64(unused) / float64(total) * 100
			if pct > cfg.CI.FailThresholdPercent {
				return newExitError(exitPathOrGate, "unused code %.1f%% exceeds fail_threshold_percent %.1f%%", pct, cfg.CI.FailThresholdPercent)
			}
		}
	}
	if cfg.CI.PerBlockComplexityCeiling > 0 {
		for _, fm := range result.FileMetrics {
			if fm.AverageComplexity > float64(cfg.CI.PerBlockComplexityCeiling) {
				return newExitError(exitPathOrGate, "%s average complexity %.1f exceeds per_block_complexity_ceiling %d",
					fm.File, fm.AverageComplexity, cfg.CI.PerBlockComplexityCeiling)
			}
		}
	}
	return nil
}

// watchAndScan re-runs the scan whenever a .py file under paths changes,
// grounded on `pyaudit scan --watch` domain-stack entry (fsnotify,
// the only file-watch library in the corpus).
func watchAndScan(paths []string, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return newExitError(exitUnexpected, "init watcher: %v", err)
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := addWatchRecursive(watcher, p); err != nil {
			return newExitError(exitUnexpected, "watch %s: %v", p, err)
		}
	}

	run := func() {
		result, err := runScanOnce(paths, cfg)
		if err != nil {
			if logger != nil {
				logger.Error("scan failed", zapField("error", err.Error()))
			}
			return
		}
		_ = emitJSON(result)
	}
	run()

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			debounce.Reset(300 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Warn("watcher error", zapField("error", err.Error()))
			}
		case <-debounce.C:
			if pending {
				pending = false
				run()
			}
		}
	}
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(root)
	}
	return filepathWalkDirs(root, watcher.Add)
}
