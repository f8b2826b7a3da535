package state

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultStateDirName is the per-user cw-orch default directory name
// (spec.md §4.1: "placed under a per-user cw-orchestrator default
// directory").
const defaultStateDirName = ".cw-orch"

// ResolvePath implements the three-way path resolution rule from spec.md
// §4.1:
//
//  1. absolute -> used directly
//  2. starts with "./" or "../" -> resolved relative to the process cwd
//  3. otherwise -> placed under the per-user default directory (created if
//     absent)
//
// isLocal appends the "_local" filename suffix before the extension, per
// spec.md §3/§6.
func ResolvePath(configured string, isLocal bool) (string, error) {
	path := configured
	if path == "" {
		path = "state.json"
	}

	var resolved string
	switch {
	case filepath.IsAbs(path):
		resolved = path
	case strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../"):
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		resolved = filepath.Join(cwd, path)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir := filepath.Join(home, defaultStateDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		resolved = filepath.Join(dir, path)
	}

	if isLocal {
		resolved = withLocalSuffix(resolved)
	}
	return resolved, nil
}

// withLocalSuffix inserts "_local" before the file extension, e.g.
// "state.json" -> "state_local.json".
func withLocalSuffix(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_local" + ext
}
