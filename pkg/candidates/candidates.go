// Package candidates reads and produces candidate topics for a discovery
// cycle.
package candidates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/papercomputeco/scout/pkg/topic"
)

// ideas is the envelope brainstorming models answer with.
type ideas struct {
	Ideas []topic.Candidate `json:"ideas"`
}

// ReadJSON decodes candidates from either a JSON array or an object with an
// "ideas" array. Candidates with blank titles are dropped.
func ReadJSON(r io.Reader) ([]topic.Candidate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []topic.Candidate{}, nil
	}

	var list []topic.Candidate
	if data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parsing candidates: %w", err)
		}
	} else {
		var env ideas
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("parsing candidates: %w", err)
		}
		list = env.Ideas
	}

	return Clean(list), nil
}

// ReadFile reads candidates from path, or from stdin when path is "-".
func ReadFile(path string) ([]topic.Candidate, error) {
	if path == "-" {
		return ReadJSON(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candidates file: %w", err)
	}
	defer f.Close()

	return ReadJSON(f)
}

// Clean trims titles and drops candidates without one.
func Clean(list []topic.Candidate) []topic.Candidate {
	out := make([]topic.Candidate, 0, len(list))
	for _, c := range list {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
