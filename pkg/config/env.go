package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads provider credentials (GEMINI_API_KEY, OPENAI_API_KEY, ...)
// from a .env file in the working directory and then from dir, if present.
// Variables already set in the environment are never overwritten.
func LoadDotEnv(dir string) error {
	paths := []string{".env"}
	if dir != "" {
		paths = append(paths, filepath.Join(dir, ".env"))
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}

	return nil
}
