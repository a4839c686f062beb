package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pyaudit/internal/aggregator"
)

// ccCommand is the standalone complexity report, independent of the full
// unused-code scan, grounded on cytoscnpy/src/commands/cc.rs's run_cc: it
// runs the same pipeline but reports only FileMetrics' complexity figures
// (quality/danger/secrets/clones/taint all disabled) so a user can ask
// "how complex is this codebase" without paying for the rest of the engine.
func ccCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.IntFlag{Name: "fail-threshold", Usage: "Exit 1 if any block's complexity exceeds this value"},
	}, commonFlags...)

	return &cli.Command{
		Name:  "cc",
		Usage: "Cyclomatic/cognitive complexity report only",
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
			cfg.EnableDanger = false
			cfg.EnableSecrets = false
			cfg.EnableTaint = false
			cfg.EnableQuality = true

			result, err := aggregator.Run(paths, cfg)
			if err != nil {
				return newExitError(exitUnexpected, "cc failed: %v", err)
			}

			type ccReport struct {
				Files           any `json:"file_metrics"`
				AverageComplexity float64 `json:"average_complexity"`
				AverageCognitive  float64 `json:"average_cognitive"`
			}
			report := ccReport{
				Files:             result.FileMetrics,
				AverageComplexity: result.AnalysisSummary.AverageComplexity,
				AverageCognitive:  result.AnalysisSummary.AverageCognitive,
			}
			if err := emitJSON(report); err != nil {
				return newExitError(exitUnexpected, "emit report: %v", err)
			}

			if threshold := c.Int("fail-threshold"); threshold > 0 {
				for _, fm := range result.FileMetrics {
					if fm.AverageComplexity > float64(threshold) {
						return newExitError(exitPathOrGate, "%s average complexity %.1f exceeds --fail-threshold %d",
							fm.File, fm.AverageComplexity, threshold)
					}
				}
			}
			return nil
		},
	}
}
