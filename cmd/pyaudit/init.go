package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pyaudit/internal/config"
)

// initCommand writes a starter .pyaudit.kdl, grounded on
// cytoscnpy/src/commands/init.rs's run_init.
func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter .pyaudit.kdl in the current (or given) directory",
		Action: func(c *cli.Context) error {
			root := "."
			if c.Args().Len() > 0 {
				root = c.Args().First()
			}
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				return newExitError(exitPathOrGate, "not a directory: %s", root)
			}
			path, err := config.WriteStarterKDL(root)
			if err != nil {
				return newExitError(exitUnexpected, "init failed: %v", err)
			}
			fmt.Fprintf(os.Stdout, "wrote %s\n", path)
			return nil
		},
	}
}
