package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pyaudit/internal/aggregator"
)

// clonesCommand runs only the clone-detection engine.
func clonesCommand() *cli.Command {
	flags := append([]cli.Flag{}, commonFlags...)

	return &cli.Command{
		Name:  "clones",
		Usage: "Clone-detection report only",
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
			cfg.EnableQuality = false

			result, err := aggregator.Run(paths, cfg)
			if err != nil {
				return newExitError(exitUnexpected, "clones failed: %v", err)
			}
			if err := emitJSON(result.Clones); err != nil {
				return newExitError(exitUnexpected, "emit report: %v", err)
			}
			return nil
		},
	}
}
