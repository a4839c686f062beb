package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// starterKDL is the text a fresh `.pyaudit.kdl` is seeded with, grounded on
// cytoscnpy/src/commands/init.rs's DEFAULT_CONFIG: one node per enumerated
// option of, commented with its meaning.
const starterKDL = `// pyaudit configuration

confidence_threshold 60

enable_secrets true
enable_danger true
enable_quality true
enable_taint true
include_tests false
include_ipynb false

exclude_folders "**/.venv/**" "**/build/**" "**/dist/**" "**/__pycache__/**"

quality {
    max_complexity 10
    max_nesting 4
    max_args 6
    max_lines 80
    min_mi 20.0
    max_cognitive 15
}

secrets {
    entropy_enabled true
    entropy_threshold 4.0
    scan_comments true
}

clones {
    similarity_threshold 0.8
    lsh_bands 20
    lsh_rows 5
    type1_threshold 0.95
    type2_raw_max 0.85
    cfg_validation true
    auto_fix_threshold 90
    suggest_threshold 60
}

ci {
    fail_threshold_percent 0.0
    per_block_complexity_ceiling 0
}
`

// WriteStarterKDL writes a starter .pyaudit.kdl into root unless one already
// exists, mirroring init.rs's "create or update configuration" behavior
// without clobbering a file a user has already customized.
func WriteStarterKDL(root string) (string, error) {
	path := filepath.Join(root, ".pyaudit.kdl")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(starterKDL), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
