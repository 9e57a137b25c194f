package topic

import (
	"encoding/json"
	"strings"
)

// Candidate is a proposed topic and the external score it is ranked by.
type Candidate struct {
	Title         string  `json:"title"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification,omitempty"`
}

// ID is the identifier the candidate would be stored under.
func (c Candidate) ID() string {
	return ID(c.Title)
}

// UnmarshalJSON accepts "virality_score" as an alias of "score". When both
// are present "score" wins.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title         string   `json:"title"`
		Score         *float64 `json:"score"`
		ViralityScore *float64 `json:"virality_score"`
		Justification string   `json:"justification"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Title = raw.Title
	c.Justification = raw.Justification
	c.Score = 0
	switch {
	case raw.Score != nil:
		c.Score = *raw.Score
	case raw.ViralityScore != nil:
		c.Score = *raw.ViralityScore
	}

	return nil
}

func titles(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Title
	}
	return out
}

// usable trims titles and drops the candidates left blank, which could
// never be stored.
func usable(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
