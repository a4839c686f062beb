// Command pyaudit is the CLI entrypoint for the static-analysis engine:
// scan (full unused-code/danger/quality/secrets/clone/taint report), cc
// (complexity-only report), clones (clone-detection-only report), and init
// (writes a starter .pyaudit.kdl).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/standardbeagle/pyaudit/internal/config"
	"github.com/standardbeagle/pyaudit/internal/version"
)

// exit codes .
const (
	exitSuccess     = 0
	exitPathOrGate  = 1
	exitUnexpected  = 2
)

var logger *zap.Logger

func main() {
	app := &cli.App{
		Name:    "pyaudit",
		Usage:   "Static analysis for Python repositories: dead code, danger patterns, quality, secrets, clones, taint",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			l, err := newLogger(c.Bool("verbose"))
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			scanCommand(),
			ccCommand(),
			clonesCommand(),
			initCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if ce, ok := err.(*cliExitError); ok {
			if logger != nil {
				logger.Error(ce.Error())
			} else {
				fmt.Fprintln(os.Stderr, ce.Error())
			}
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUnexpected)
	}
}

// cliExitError carries the specific exit code a command wants main to use,
// distinguishing "path missing / CI gate violated" (1) from
// any other unexpected failure (2).
type cliExitError struct {
	code int
	msg  string
}

func (e *cliExitError) Error() string { return e.msg }

func newExitError(code int, format string, args ...any) *cliExitError {
	return &cliExitError{code: code, msg: fmt.Sprintf(format, args...)}
}

// validatePaths confirms every input path exists, exit
// code 1 condition "any path does not exist".
func validatePaths(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return newExitError(exitPathOrGate, "path does not exist: %s", p)
		}
	}
	return nil
}

// loadConfig loads .pyaudit.kdl from the first path's directory (or the
// path itself if it's already a directory), falling back to built-in
// defaults.
func loadConfig(paths []string) (*config.Config, error) {
	root := "."
	if len(paths) > 0 {
		root = paths[0]
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			root = filepath.Dir(root)
		}
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, newExitError(exitUnexpected, "load config: %v", err)
	}
	return cfg, nil
}

func applyCommonOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("confidence") {
		cfg.ConfidenceThreshold = c.Int("confidence")
	}
	if c.IsSet("include-tests") {
		cfg.IncludeTests = c.Bool("include-tests")
	}
	if c.IsSet("include-ipynb") {
		cfg.IncludeIPyNB = c.Bool("include-ipynb")
	}
	if excl := c.StringSlice("exclude"); len(excl) > 0 {
		cfg.ExcludeFolders = append(cfg.ExcludeFolders, excl...)
	}
	if incl := c.StringSlice("include"); len(incl) > 0 {
		cfg.IncludeFolders = append(cfg.IncludeFolders, incl...)
	}
	if c.IsSet("no-secrets") {
		cfg.EnableSecrets = !c.Bool("no-secrets")
	}
	if c.IsSet("no-danger") {
		cfg.EnableDanger = !c.Bool("no-danger")
	}
	if c.IsSet("no-quality") {
		cfg.EnableQuality = !c.Bool("no-quality")
	}
	if c.IsSet("no-taint") {
		cfg.EnableTaint = !c.Bool("no-taint")
	}
}

var commonFlags = []cli.Flag{
	&cli.IntFlag{Name: "confidence", Usage: "Confidence threshold (0-100)"},
	&cli.BoolFlag{Name: "include-tests", Usage: "Include test files in analysis"},
	&cli.BoolFlag{Name: "include-ipynb", Usage: "Include Jupyter notebooks"},
	&cli.StringSliceFlag{Name: "exclude", Usage: "Additional exclude glob pattern"},
	&cli.StringSliceFlag{Name: "include", Usage: "Force-include glob pattern"},
	&cli.BoolFlag{Name: "no-secrets", Usage: "Disable secret scanning"},
	&cli.BoolFlag{Name: "no-danger", Usage: "Disable danger-pattern rules"},
	&cli.BoolFlag{Name: "no-quality", Usage: "Disable quality rules"},
	&cli.BoolFlag{Name: "no-taint", Usage: "Disable taint analysis"},
	&cli.BoolFlag{Name: "json", Usage: "Emit JSON to stdout (default)", Value: true},
}
