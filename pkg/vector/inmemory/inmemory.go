// Package inmemory provides a process-local vector driver with exact
// nearest-neighbour search.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/scout/pkg/vector"
)

// Driver implements vector.Driver with a brute-force scan over a slice.
type Driver struct {
	// mu guards docs and index
	mu sync.RWMutex

	// docs holds documents in insertion order
	docs []vector.Document

	// index maps a document ID to its position in docs
	index map[string]int
}

// NewDriver creates an empty in-memory vector driver.
func NewDriver() *Driver {
	return &Driver{
		index: make(map[string]int),
	}
}

// Add stores documents that are not yet present.
func (d *Driver) Add(_ context.Context, docs []vector.Document) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inserted := 0
	for _, doc := range docs {
		if _, ok := d.index[doc.ID]; ok {
			continue
		}
		doc.Embedding = slices.Clone(doc.Embedding)
		d.index[doc.ID] = len(d.docs)
		d.docs = append(d.docs, doc)
		inserted++
	}

	return inserted, nil
}

// Query scans every stored document for each embedding. Ties keep
// insertion order.
func (d *Driver) Query(_ context.Context, embeddings [][]float32, topK int) ([][]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 1
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([][]vector.QueryResult, len(embeddings))
	for i, embedding := range embeddings {
		matches := make([]vector.QueryResult, 0, len(d.docs))
		for _, doc := range d.docs {
			matches = append(matches, vector.QueryResult{
				Document: doc,
				Distance: vector.SquaredL2(embedding, doc.Embedding),
			})
		}

		slices.SortStableFunc(matches, func(a, b vector.QueryResult) int {
			switch {
			case a.Distance < b.Distance:
				return -1
			case a.Distance > b.Distance:
				return 1
			}
			return 0
		})

		results[i] = matches[:min(topK, len(matches))]
	}

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var docs []vector.Document
	for _, id := range ids {
		if i, ok := d.index[id]; ok {
			docs = append(docs, d.docs[i])
		}
	}
	return docs, nil
}

// List returns every document in insertion order.
func (d *Driver) List(_ context.Context) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.docs), nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.docs), nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
