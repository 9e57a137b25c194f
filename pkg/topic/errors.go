package topic

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable wraps any failure of the embedding provider or
	// the vector store. A cycle that hits it is aborted; candidates are never
	// reported fresh because a provider was down.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidThreshold is returned for similarity thresholds outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")

	// ErrEmptyText is returned when a topic is blank after trimming.
	ErrEmptyText = errors.New("topic text is empty")

	// ErrPendingCommit is returned by Propose while a previous selection
	// is still waiting in the journal. Call Recover first.
	ErrPendingCommit = errors.New("a proposed topic is still pending commit")

	// ErrNoTopicAvailable is the parent of both "nothing selected" errors.
	ErrNoTopicAvailable = errors.New("no topic available")

	ErrNoFreshCandidates   = fmt.Errorf("%w: every candidate is too similar to a used topic", ErrNoTopicAvailable)
	ErrEmptyCandidateInput = fmt.Errorf("%w: no candidates were supplied", ErrNoTopicAvailable)
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, op, err)
}
