// Package novelty provides the shared request and response types for a
// novelty check. It is used by both the REST API endpoint and the MCP
// server tool.
package novelty

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/scout/pkg/topic"
)

// CheckInput is a batch of candidates and an optional threshold override.
type CheckInput struct {
	Candidates []topic.Candidate `json:"candidates" jsonschema:"candidate topics with title and score"`
	Threshold  *float64          `json:"threshold,omitempty" jsonschema:"similarity threshold in [0,1]; defaults to the server setting"`
}

// CheckOutput holds the per-candidate verdicts and the fresh candidates
// ranked best first.
type CheckOutput struct {
	Threshold float64           `json:"threshold"`
	Verdicts  []topic.Verdict   `json:"verdicts"`
	Fresh     []topic.Candidate `json:"fresh"`
	Selected  *topic.Candidate  `json:"selected,omitempty"`
	Count     int               `json:"count"`
}

// Check classifies input without committing anything.
func Check(ctx context.Context, checker *topic.Checker, input CheckInput, defaultThreshold float64, logger *slog.Logger) (*CheckOutput, error) {
	threshold := defaultThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}

	logger.Debug("novelty check",
		"candidates", len(input.Candidates),
		"threshold", threshold,
	)

	verdicts, err := checker.Classify(ctx, input.Candidates, threshold)
	if err != nil {
		return nil, fmt.Errorf("checking novelty: %w", err)
	}

	fresh := topic.Rank(topic.FreshCandidates(verdicts))
	out := &CheckOutput{
		Threshold: threshold,
		Verdicts:  verdicts,
		Fresh:     fresh,
		Count:     len(fresh),
	}
	if len(fresh) > 0 {
		selected := fresh[0]
		out.Selected = &selected
	}

	return out, nil
}
