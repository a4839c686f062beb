package config

import (
	"errors"
	"fmt"
	"runtime"

	pyaudit_errors "github.com/standardbeagle/pyaudit/internal/errors"
)

// Validator validates configuration and sets smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns an error if validation fails.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return pyaudit_errors.NewConfigError("project", "", err)
	}

	if err := v.validateQualityConfig(&cfg.Quality); err != nil {
		return pyaudit_errors.NewConfigError("quality", "", err)
	}

	if err := v.validateSecretsConfig(&cfg.Secrets); err != nil {
		return pyaudit_errors.NewConfigError("secrets", "", err)
	}

	if err := v.validateClonesConfig(&cfg.Clones); err != nil {
		return pyaudit_errors.NewConfigError("clones", "", err)
	}

	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		return pyaudit_errors.NewConfigError("performance", "", err)
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 100 {
		return pyaudit_errors.NewConfigError("confidence_threshold", fmt.Sprint(cfg.ConfidenceThreshold),
			errors.New("must be between 0 and 100"))
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateQualityConfig(q *Quality) error {
	if q.MaxComplexity <= 0 {
		return fmt.Errorf("max_complexity must be positive, got %d", q.MaxComplexity)
	}
	if q.MaxNesting <= 0 {
		return fmt.Errorf("max_nesting must be positive, got %d", q.MaxNesting)
	}
	if q.MaxArgs <= 0 {
		return fmt.Errorf("max_args must be positive, got %d", q.MaxArgs)
	}
	if q.MaxLines <= 0 {
		return fmt.Errorf("max_lines must be positive, got %d", q.MaxLines)
	}
	return nil
}

func (v *Validator) validateSecretsConfig(s *Secrets) error {
	if s.EntropyEnabled && s.EntropyThreshold <= 0 {
		return fmt.Errorf("entropy_threshold must be positive when entropy scanning is enabled, got %v", s.EntropyThreshold)
	}
	for i, p := range s.Patterns {
		if p.Regex == "" {
			return fmt.Errorf("patterns[%d]: regex cannot be empty", i)
		}
	}
	return nil
}

func (v *Validator) validateClonesConfig(c *Clones) error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0,1], got %v", c.SimilarityThreshold)
	}
	if c.Type1Threshold < 0 || c.Type1Threshold > 1 {
		return fmt.Errorf("type1_threshold must be in [0,1], got %v", c.Type1Threshold)
	}
	if c.LSHBands <= 0 || c.LSHRows <= 0 {
		return fmt.Errorf("lsh_bands and lsh_rows must be positive, got %d/%d", c.LSHBands, c.LSHRows)
	}
	return nil
}

func (v *Validator) validatePerformanceConfig(perf *Performance) error {
	if perf.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", perf.ChunkSize)
	}
	if perf.ParallelFileWorkers < 0 {
		return fmt.Errorf("parallel_file_workers cannot be negative, got %d", perf.ParallelFileWorkers)
	}
	return nil
}

// setSmartDefaults fills in zero-valued performance knobs based on the
// host's CPU count, leaving one core free for the OS.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.ParallelFileWorkers == 0 {
		cfg.Performance.ParallelFileWorkers = max(1, runtime.NumCPU()-1)
	}
	if cfg.Performance.ChunkSize == 0 {
		cfg.Performance.ChunkSize = 500
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
