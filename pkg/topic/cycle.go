package topic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/scout/pkg/dotdir"
	"github.com/papercomputeco/scout/pkg/eventstream"
)

// Journal holds at most one selection between the propose and commit
// phases. *dotdir.Journal satisfies it.
type Journal interface {
	Load() (*dotdir.PendingCommit, error)
	Save(pending *dotdir.PendingCommit) error
	Clear() error
}

// CycleConfig configures a discovery cycle.
type CycleConfig struct {
	Store   *Store
	Journal Journal

	// Publisher receives a topic committed event after every commit. Nil
	// disables publishing.
	Publisher eventstream.Publisher

	Threshold float64
	Logger    *slog.Logger
}

// Cycle runs propose/commit rounds against a topic store. A selection is
// journaled before Propose returns and removed only after its commit, so a
// process that dies in between replays the commit on the next Recover.
type Cycle struct {
	store     *Store
	checker   *Checker
	journal   Journal
	publisher eventstream.Publisher
	logger    *slog.Logger

	threshold atomic.Uint64
}

// NewCycle validates c and returns a cycle.
func NewCycle(c CycleConfig) (*Cycle, error) {
	if c.Store == nil {
		return nil, errors.New("topic store is required")
	}
	if c.Journal == nil {
		return nil, errors.New("journal is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	cycle := &Cycle{
		store:     c.Store,
		checker:   NewChecker(c.Store, c.Logger),
		journal:   c.Journal,
		publisher: c.Publisher,
		logger:    c.Logger,
	}
	if err := cycle.SetThreshold(c.Threshold); err != nil {
		return nil, err
	}

	return cycle, nil
}

// Threshold returns the similarity threshold used by Propose.
func (c *Cycle) Threshold() float64 {
	return math.Float64frombits(c.threshold.Load())
}

// SetThreshold changes the threshold for subsequent proposals.
func (c *Cycle) SetThreshold(threshold float64) error {
	if err := ValidateThreshold(threshold); err != nil {
		return err
	}
	c.threshold.Store(math.Float64bits(threshold))
	return nil
}

// Store returns the topic store the cycle commits to.
func (c *Cycle) Store() *Store {
	return c.store
}

// Checker returns the novelty checker the cycle proposes with.
func (c *Cycle) Checker() *Checker {
	return c.checker
}

// Proposal is a decided but not yet committed outcome.
type Proposal struct {
	Outcome *Outcome

	cycle     *Cycle
	pending   *dotdir.PendingCommit
	committed bool
}

// Option adjusts a single Preview, Propose or Run call.
type Option func(*options)

type options struct {
	threshold *float64
}

// WithThreshold overrides the cycle threshold for one call.
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = &threshold
	}
}

func (c *Cycle) thresholdFor(opts []Option) float64 {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.threshold != nil {
		return *o.threshold
	}
	return c.Threshold()
}

// Preview classifies and ranks candidates without touching the journal or
// the store. Titles are trimmed and blank candidates are dropped first, so
// input with no usable title ends as StatusNoCandidates.
func (c *Cycle) Preview(ctx context.Context, candidates []Candidate, opts ...Option) (*Outcome, error) {
	threshold := c.thresholdFor(opts)
	verdicts, err := c.checker.Classify(ctx, usable(candidates), threshold)
	if err != nil {
		return nil, err
	}
	return decide(verdicts, threshold), nil
}

// Propose decides an outcome and, when a topic was selected, journals it.
// It fails with ErrPendingCommit while an earlier selection is uncommitted.
func (c *Cycle) Propose(ctx context.Context, candidates []Candidate, opts ...Option) (*Proposal, error) {
	pending, err := c.journal.Load()
	if err != nil {
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: %q", ErrPendingCommit, pending.Title)
	}

	outcome, err := c.Preview(ctx, candidates, opts...)
	if err != nil {
		return nil, err
	}

	p := &Proposal{Outcome: outcome, cycle: c}
	if outcome.Selected == nil {
		c.logger.Warn("no topic selected", "status", outcome.Status, "candidates", len(candidates))
		return p, nil
	}

	p.pending = &dotdir.PendingCommit{
		ID:            outcome.Selected.ID(),
		Title:         outcome.Selected.Title,
		Score:         outcome.Selected.Score,
		Justification: outcome.Selected.Justification,
		ProposedAt:    time.Now().UTC(),
	}
	if err := c.journal.Save(p.pending); err != nil {
		return nil, fmt.Errorf("journaling proposal: %w", err)
	}

	c.logger.Info("proposed topic",
		"title", outcome.Selected.Title,
		"score", outcome.Selected.Score,
		"fresh", len(outcome.Fresh),
		"candidates", len(candidates),
	)

	return p, nil
}

// Commit writes the selected topic to the store, publishes the committed
// event and clears the journal. Without a selection it returns the
// outcome's ErrNoTopicAvailable child. Committing twice is a no-op.
func (p *Proposal) Commit(ctx context.Context) error {
	if p.pending == nil {
		return p.Outcome.Err()
	}
	if p.committed {
		return nil
	}

	sel := eventstream.SelectionMeta{
		Threshold:  p.Outcome.Threshold,
		Candidates: len(p.Outcome.Verdicts),
		Fresh:      len(p.Outcome.Fresh),
	}
	if _, err := p.cycle.commit(ctx, p.pending, sel); err != nil {
		return err
	}

	p.committed = true
	return nil
}

// Recover replays a selection left in the journal by an interrupted cycle.
// It returns the replayed entry, or nil when nothing was pending. A blank
// entry can never commit and is discarded.
func (c *Cycle) Recover(ctx context.Context) (*dotdir.PendingCommit, error) {
	pending, err := c.journal.Load()
	if err != nil {
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	if pending == nil {
		return nil, nil
	}

	if strings.TrimSpace(pending.Title) == "" {
		c.logger.Warn("discarding blank uncommitted topic", "id", pending.ID, "proposed_at", pending.ProposedAt)
		if err := c.journal.Clear(); err != nil {
			return nil, fmt.Errorf("clearing journal: %w", err)
		}
		return nil, nil
	}

	c.logger.Warn("recovering uncommitted topic", "title", pending.Title, "proposed_at", pending.ProposedAt)

	sel := eventstream.SelectionMeta{
		Threshold: c.Threshold(),
		Recovered: true,
	}
	if _, err := c.commit(ctx, pending, sel); err != nil {
		return nil, err
	}

	return pending, nil
}

// CommitCandidate commits an externally chosen topic without a novelty
// check, through the same journal and event path as a proposal. It reports
// whether the topic was new to the store.
func (c *Cycle) CommitCandidate(ctx context.Context, cand Candidate) (bool, error) {
	cand.Title = strings.TrimSpace(cand.Title)
	if cand.Title == "" {
		return false, ErrEmptyText
	}

	pending, err := c.journal.Load()
	if err != nil {
		return false, fmt.Errorf("loading journal: %w", err)
	}
	if pending != nil {
		return false, fmt.Errorf("%w: %q", ErrPendingCommit, pending.Title)
	}

	pending = &dotdir.PendingCommit{
		ID:            cand.ID(),
		Title:         cand.Title,
		Score:         cand.Score,
		Justification: cand.Justification,
		ProposedAt:    time.Now().UTC(),
	}
	if err := c.journal.Save(pending); err != nil {
		return false, fmt.Errorf("journaling commit: %w", err)
	}

	return c.commit(ctx, pending, eventstream.SelectionMeta{
		Threshold:  c.Threshold(),
		Candidates: 1,
		Fresh:      1,
	})
}

// Run recovers, proposes and commits in one call.
func (c *Cycle) Run(ctx context.Context, candidates []Candidate, opts ...Option) (*Outcome, error) {
	if _, err := c.Recover(ctx); err != nil {
		return nil, err
	}

	p, err := c.Propose(ctx, candidates, opts...)
	if err != nil {
		return nil, err
	}
	if p.Outcome.Selected == nil {
		return p.Outcome, nil
	}

	if err := p.Commit(ctx); err != nil {
		return nil, err
	}
	return p.Outcome, nil
}

func (c *Cycle) commit(ctx context.Context, pending *dotdir.PendingCommit, sel eventstream.SelectionMeta) (bool, error) {
	added, err := c.store.Add(ctx, pending.Title)
	if err != nil {
		return false, err
	}

	if c.publisher != nil {
		size, err := c.store.Count(ctx)
		if err != nil {
			return false, err
		}
		sel.MemorySize = size

		event := eventstream.NewTopicCommittedEvent(eventstream.TopicMeta{
			ID:            pending.ID,
			Title:         pending.Title,
			Score:         pending.Score,
			Justification: pending.Justification,
		}, sel)

		// the journal stays until the event is out; a replay re-adds
		// idempotently and publishes again
		if err := c.publisher.PublishTopic(ctx, event); err != nil {
			return false, fmt.Errorf("publishing committed topic: %w", err)
		}
	}

	if err := c.journal.Clear(); err != nil {
		return false, fmt.Errorf("clearing journal: %w", err)
	}

	c.logger.Info("committed topic", "title", pending.Title, "id", pending.ID, "new", added)
	return added, nil
}
