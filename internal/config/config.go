// Package config loads pyaudit's run configuration: a KDL file
// (.pyaudit.kdl) as the primary format, a YAML sidecar for shared secret
// pattern catalogs, and a read-only TOML compatibility shim for teams
// migrating from other linters.
package config

import (
	"os"
	"runtime"
)

// Config is the full set of options enumerated in the external interface:
// thresholds, enable flags, folder lists, clone-detection tunables, and
// secret pattern overrides.
type Config struct {
	Version int
	Project Project

	ConfidenceThreshold int

	EnableSecrets bool
	EnableDanger  bool
	EnableQuality bool
	EnableTaint   bool
	IncludeTests  bool
	IncludeIPyNB  bool
	IPyNBCells    bool

	ExcludeFolders []string
	IncludeFolders []string

	Quality  Quality
	Secrets  Secrets
	Clones   Clones
	CI       CI
	Performance Performance
}

type Project struct {
	Root string
	Name string
}

// Quality holds the quality-rule thresholds.
type Quality struct {
	MaxComplexity int
	MaxNesting    int
	MaxArgs       int
	MaxLines      int
	MinMI         float64
	MaxCognitive  int
}

// SecretPattern is one user-supplied regex pattern override/addition.
type SecretPattern struct {
	Name     string
	Regex    string
	Severity string
	RuleID   string
}

// Secrets holds the secret-scanner tunables.
type Secrets struct {
	EntropyEnabled   bool
	EntropyThreshold float64
	ScanComments     bool
	Patterns         []SecretPattern
}

// Clones holds the clone-detection tunables.
type Clones struct {
	SimilarityThreshold float64
	LSHBands            int
	LSHRows             int
	Type1Threshold      float64
	Type2RawMax         float64
	CFGValidation       bool
	AutoFixThreshold     int
	SuggestThreshold     int
}

// CI holds the CI-gate settings behind pyaudit's exit code 1.
type CI struct {
	FailThresholdPercent   float64 // 0 disables the gate
	PerBlockComplexityCeiling int  // 0 disables the gate
}

// Performance controls the chunked-walk concurrency model.
type Performance struct {
	ChunkSize           int // files per chunk, default 500
	ParallelFileWorkers int // 0 = auto-detect (NumCPU)
}

// Load resolves configuration for rootDir: a KDL file if present, else
// built-in defaults. Secret pattern overrides additionally merge in a YAML
// sidecar when one is referenced from the KDL file.
func Load(rootDir string) (*Config, error) {
	if cfg, err := LoadKDL(rootDir); err != nil {
		return nil, err
	} else if cfg != nil {
		cfg.EnrichExclusionsWithBuildArtifacts()
		return cfg, nil
	}
	cfg := Default(rootDir)
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// Default returns the built-in configuration, rooted at rootDir.
func Default(rootDir string) *Config {
	root := rootDir
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		} else {
			root = "."
		}
	}

	return &Config{
		Version: 1,
		Project: Project{Root: root},

		ConfidenceThreshold: 60,

		EnableSecrets: true,
		EnableDanger:  true,
		EnableQuality: true,
		EnableTaint:   true,
		IncludeTests:  false,
		IncludeIPyNB:  false,
		IPyNBCells:    true,

		ExcludeFolders: defaultExcludeFolders(),
		IncludeFolders: []string{},

		Quality: Quality{
			MaxComplexity: 10,
			MaxNesting:    4,
			MaxArgs:       6,
			MaxLines:      80,
			MinMI:         20,
			MaxCognitive:  15,
		},
		Secrets: Secrets{
			EntropyEnabled:   true,
			EntropyThreshold: 4.0,
			ScanComments:     true,
		},
		Clones: Clones{
			SimilarityThreshold: 0.8,
			LSHBands:            20,
			LSHRows:             5,
			Type1Threshold:      0.95,
			Type2RawMax:         0.85,
			CFGValidation:       true,
			AutoFixThreshold:    90,
			SuggestThreshold:    60,
		},
		CI: CI{
			FailThresholdPercent:      0,
			PerBlockComplexityCeiling: 0,
		},
		Performance: Performance{
			ChunkSize:           500,
			ParallelFileWorkers: runtime.NumCPU(),
		},
	}
}

// EnrichExclusionsWithBuildArtifacts appends any project-specific build
// output directories discovered in pyproject.toml to ExcludeFolders.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detector := NewBuildArtifactDetector(c.Project.Root)
	if detected := detector.DetectOutputDirectories(); len(detected) > 0 {
		c.ExcludeFolders = DeduplicatePatterns(append(c.ExcludeFolders, detected...))
	}
}

// defaultExcludeFolders is the built-in exclusion set:
// virtual-environment, build, cache, and VCS directories.
func defaultExcludeFolders() []string {
	return []string{
		"**/.git/**",
		"**/.hg/**",
		"**/.svn/**",

		"**/venv/**",
		"**/.venv/**",
		"**/virtualenv/**",
		"**/env/**",
		"**/.env/**",
		"**/conda/**",
		"**/site-packages/**",

		"**/__pycache__/**",
		"**/*.pyc",
		"**/*.pyo",
		"**/*.egg-info/**",
		"**/.eggs/**",
		"**/.pytest_cache/**",
		"**/.mypy_cache/**",
		"**/.ruff_cache/**",
		"**/.tox/**",

		"**/build/**",
		"**/dist/**",
		"**/*.egg",

		"**/node_modules/**",

		"**/.idea/**",
		"**/.vscode/**",
	}
}
