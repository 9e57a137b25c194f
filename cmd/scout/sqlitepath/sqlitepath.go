// Package sqlitepath resolves where the default sqlite-vec topic memory lives.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the topic memory file created inside the scout directory.
const DefaultFileName = "topics.sqlite"

// ResolveSQLitePath returns override when set, otherwise the first existing
// topic memory file, otherwise DefaultFileName inside scoutDir.
func ResolveSQLitePath(override, scoutDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	for _, candidate := range sqliteCandidates(scoutDir) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if scoutDir == "" {
		return "", errors.New("could not resolve scout topic memory; pass --vector-store-target")
	}
	return filepath.Join(scoutDir, DefaultFileName), nil
}

func sqliteCandidates(scoutDir string) []string {
	var candidates []string
	if scoutDir != "" {
		candidates = append(candidates,
			filepath.Join(scoutDir, DefaultFileName),
			filepath.Join(scoutDir, "topics.db"),
		)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "scout", DefaultFileName))
	}

	return candidates
}
