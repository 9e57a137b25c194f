package topic

import (
	"context"
	"log/slog"
	"math"
)

// NoNeighborDistance is reported for a candidate that has no stored
// neighbour. It is always fresh.
const NoNeighborDistance float32 = math.MaxFloat32

// Verdict is the novelty classification of one candidate.
type Verdict struct {
	Candidate Candidate `json:"candidate"`

	// Distance is the squared L2 distance to the nearest stored topic.
	Distance float32 `json:"distance"`

	// Nearest is the text of the nearest stored topic, empty when none.
	Nearest string `json:"nearest,omitempty"`

	Fresh bool `json:"fresh"`
}

// Checker rejects candidates that sit too close to a stored topic.
type Checker struct {
	store  *Store
	logger *slog.Logger
}

func NewChecker(store *Store, logger *slog.Logger) *Checker {
	return &Checker{
		store:  store,
		logger: logger,
	}
}

// ValidateThreshold reports ErrInvalidThreshold for values outside [0,1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return ErrInvalidThreshold
	}
	return nil
}

// Classify returns one verdict per candidate, in input order. A candidate
// is a duplicate when its nearest stored topic is at squared L2 distance
// strictly below 1 - threshold, so raising the threshold never rejects more.
func (c *Checker) Classify(ctx context.Context, candidates []Candidate, threshold float64) ([]Verdict, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Verdict{}, nil
	}

	verdicts := make([]Verdict, len(candidates))
	for i, cand := range candidates {
		verdicts[i] = Verdict{Candidate: cand, Distance: NoNeighborDistance, Fresh: true}
	}

	count, err := c.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		c.logger.Debug("topic memory is empty, every candidate is fresh", "candidates", len(candidates))
		return verdicts, nil
	}

	groups, err := c.store.QueryNearest(ctx, titles(candidates), 1)
	if err != nil {
		return nil, err
	}

	cutoff := 1 - threshold
	for i := range verdicts {
		if len(groups[i]) == 0 {
			continue
		}

		nearest := groups[i][0]
		verdicts[i].Distance = nearest.Distance
		verdicts[i].Nearest = nearest.Text
		verdicts[i].Fresh = float64(nearest.Distance) >= cutoff

		if !verdicts[i].Fresh {
			c.logger.Info("rejected candidate",
				"title", candidates[i].Title,
				"nearest", nearest.Text,
				"distance", nearest.Distance,
				"cutoff", cutoff,
			)
		}
	}

	return verdicts, nil
}

// Filter returns the fresh candidates in input order.
func (c *Checker) Filter(ctx context.Context, candidates []Candidate, threshold float64) ([]Candidate, error) {
	verdicts, err := c.Classify(ctx, candidates, threshold)
	if err != nil {
		return nil, err
	}
	return FreshCandidates(verdicts), nil
}

// FreshCandidates extracts the fresh candidates from verdicts.
func FreshCandidates(verdicts []Verdict) []Candidate {
	fresh := make([]Candidate, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Fresh {
			fresh = append(fresh, v.Candidate)
		}
	}
	return fresh
}
