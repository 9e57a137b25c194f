package topic

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/papercomputeco/scout/pkg/embeddings"
	"github.com/papercomputeco/scout/pkg/vector"
)

// Store is the append-only embedding memory of used topics. Persistence is
// whatever the vector driver provides; every Add is durable once it returns.
type Store struct {
	driver   vector.Driver
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// NewStore creates a topic store over an opened driver and embedder. The
// store does not own either and Close on the store is not provided.
func NewStore(driver vector.Driver, embedder embeddings.Embedder, logger *slog.Logger) *Store {
	return &Store{
		driver:   driver,
		embedder: embedder,
		logger:   logger,
	}
}

// Add stores text unless a record with the same ID already exists. Existing
// topics are detected before embedding, so re-adding never calls the
// provider. The returned bool reports whether a row was inserted.
func (s *Store) Add(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, ErrEmptyText
	}

	id := ID(text)
	exists, err := s.hasID(ctx, id)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug("topic already stored", "id", id, "text", text)
		return false, nil
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return false, unavailable("embedding topic", err)
	}

	return s.insert(ctx, id, text, embedding)
}

// AddEmbedded stores text with a precomputed embedding. The embedding is
// used as is; a store with normalization enabled expects a unit vector.
func (s *Store) AddEmbedded(ctx context.Context, text string, embedding []float32) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, ErrEmptyText
	}
	if len(embedding) == 0 {
		return false, errors.New("embedding is empty")
	}

	return s.insert(ctx, ID(text), text, embedding)
}

func (s *Store) insert(ctx context.Context, id, text string, embedding []float32) (bool, error) {
	n, err := s.driver.Add(ctx, []vector.Document{{
		ID:        id,
		Text:      text,
		Embedding: embedding,
	}})
	if err != nil {
		return false, unavailable("storing topic", err)
	}

	if n > 0 {
		s.logger.Info("stored topic", "id", id, "text", text)
	}
	return n > 0, nil
}

// Count returns the number of stored topics.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.driver.Count(ctx)
	if err != nil {
		return 0, unavailable("counting topics", err)
	}
	return n, nil
}

// Has reports whether text is already stored.
func (s *Store) Has(ctx context.Context, text string) (bool, error) {
	return s.hasID(ctx, ID(text))
}

func (s *Store) hasID(ctx context.Context, id string) (bool, error) {
	docs, err := s.driver.Get(ctx, []string{id})
	if err != nil {
		return false, unavailable("looking up topic", err)
	}
	return len(docs) > 0, nil
}

// QueryNearest embeds texts in one batch and returns, per text, up to k
// stored neighbours nearest first. An empty store yields empty groups.
func (s *Store) QueryNearest(ctx context.Context, texts []string, k int) ([][]Neighbor, error) {
	if len(texts) == 0 {
		return [][]Neighbor{}, nil
	}
	if k <= 0 {
		k = 1
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, unavailable("embedding candidates", err)
	}
	if len(vectors) != len(texts) {
		return nil, unavailable("embedding candidates",
			errors.New("provider returned a different number of embeddings than texts"))
	}

	groups, err := s.driver.Query(ctx, vectors, k)
	if err != nil {
		return nil, unavailable("querying topics", err)
	}

	out := make([][]Neighbor, len(texts))
	for i := range out {
		out[i] = []Neighbor{}
		if i >= len(groups) {
			continue
		}
		for _, r := range groups[i] {
			out[i] = append(out[i], Neighbor{
				Record: Record{
					ID:        r.ID,
					Text:      r.Text,
					Embedding: r.Embedding,
				},
				Distance: r.Distance,
			})
		}
	}

	return out, nil
}

// List returns every stored topic in insertion order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	docs, err := s.driver.List(ctx)
	if err != nil {
		return nil, unavailable("listing topics", err)
	}

	records := make([]Record, len(docs))
	for i, d := range docs {
		records[i] = Record{ID: d.ID, Text: d.Text, Embedding: d.Embedding}
	}
	return records, nil
}
