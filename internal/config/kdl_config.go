package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from a .pyaudit.kdl file under
// projectRoot. A missing file is not an error: callers fall back to
// Default.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".pyaudit.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .pyaudit.kdl: %w", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg.Project.Root == "" {
		if abs, err := filepath.Abs(projectRoot); err == nil {
			cfg.Project.Root = abs
		} else {
			cfg.Project.Root = projectRoot
		}
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(projectRoot, cfg.Project.Root))
	}

	return cfg, nil
}

// parseKDL parses KDL document content into a Config, starting from
// defaults and overlaying whatever nodes are present.
func parseKDL(content string) (*Config, error) {
	cfg := Default("")

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}

		case "confidence_threshold":
			if v, ok := firstIntArg(n); ok {
				cfg.ConfidenceThreshold = v
			}

		case "enable_secrets":
			if v, ok := firstBoolArg(n); ok {
				cfg.EnableSecrets = v
			}
		case "enable_danger":
			if v, ok := firstBoolArg(n); ok {
				cfg.EnableDanger = v
			}
		case "enable_quality":
			if v, ok := firstBoolArg(n); ok {
				cfg.EnableQuality = v
			}
		case "enable_taint":
			if v, ok := firstBoolArg(n); ok {
				cfg.EnableTaint = v
			}
		case "include_tests":
			if v, ok := firstBoolArg(n); ok {
				cfg.IncludeTests = v
			}
		case "include_ipynb":
			if v, ok := firstBoolArg(n); ok {
				cfg.IncludeIPyNB = v
			}
		case "ipynb_cells":
			if v, ok := firstBoolArg(n); ok {
				cfg.IPyNBCells = v
			}

		case "exclude_folders":
			if vs := collectStringArgs(n); len(vs) > 0 {
				cfg.ExcludeFolders = append(cfg.ExcludeFolders, vs...)
			}
		case "include_folders":
			if vs := collectStringArgs(n); len(vs) > 0 {
				cfg.IncludeFolders = append(cfg.IncludeFolders, vs...)
			}

		case "quality":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_complexity":
					if v, ok := firstIntArg(cn); ok {
						cfg.Quality.MaxComplexity = v
					}
				case "max_nesting":
					if v, ok := firstIntArg(cn); ok {
						cfg.Quality.MaxNesting = v
					}
				case "max_args":
					if v, ok := firstIntArg(cn); ok {
						cfg.Quality.MaxArgs = v
					}
				case "max_lines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Quality.MaxLines = v
					}
				case "min_mi":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Quality.MinMI = v
					}
				case "max_cognitive":
					if v, ok := firstIntArg(cn); ok {
						cfg.Quality.MaxCognitive = v
					}
				}
			}

		case "secrets":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "entropy_enabled":
					if v, ok := firstBoolArg(cn); ok {
						cfg.Secrets.EntropyEnabled = v
					}
				case "entropy_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Secrets.EntropyThreshold = v
					}
				case "scan_comments":
					if v, ok := firstBoolArg(cn); ok {
						cfg.Secrets.ScanComments = v
					}
				case "pattern":
					cfg.Secrets.Patterns = append(cfg.Secrets.Patterns, parseSecretPatternNode(cn))
				}
			}

		case "clones":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "similarity_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Clones.SimilarityThreshold = v
					}
				case "lsh_bands":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clones.LSHBands = v
					}
				case "lsh_rows":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clones.LSHRows = v
					}
				case "type1_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Clones.Type1Threshold = v
					}
				case "type2_raw_max":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Clones.Type2RawMax = v
					}
				case "cfg_validation":
					if v, ok := firstBoolArg(cn); ok {
						cfg.Clones.CFGValidation = v
					}
				case "auto_fix_threshold":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clones.AutoFixThreshold = v
					}
				case "suggest_threshold":
					if v, ok := firstIntArg(cn); ok {
						cfg.Clones.SuggestThreshold = v
					}
				}
			}

		case "ci":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "fail_threshold_percent":
					if v, ok := firstFloatArg(cn); ok {
						cfg.CI.FailThresholdPercent = v
					}
				case "per_block_complexity_ceiling":
					if v, ok := firstIntArg(cn); ok {
						cfg.CI.PerBlockComplexityCeiling = v
					}
				}
			}

		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "chunk_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ChunkSize = v
					}
				case "parallel_file_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParallelFileWorkers = v
					}
				}
			}
		}
	}

	return cfg, nil
}

func parseSecretPatternNode(n *document.Node) SecretPattern {
	p := SecretPattern{}
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "name":
			if v, ok := firstStringArg(cn); ok {
				p.Name = v
			}
		case "regex":
			if v, ok := firstStringArg(cn); ok {
				p.Regex = v
			}
		case "severity":
			if v, ok := firstStringArg(cn); ok {
				p.Severity = v
			}
		case "rule_id":
			if v, ok := firstStringArg(cn); ok {
				p.RuleID = v
			}
		}
	}
	return p
}

// Helper functions over the kdl-go document model.

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}

	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
