// Package vector provides the storage interface for embedded topic records
// and its implementations.
package vector

import "context"

// Document is a stored record: the topic text and its embedding.
type Document struct {
	// ID is the deterministic identifier of the document.
	ID string

	// Text is the original text that was embedded.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a nearest-neighbour match.
type QueryResult struct {
	Document

	// Distance is the squared Euclidean (L2) distance between the query
	// embedding and the document embedding. Lower is closer.
	Distance float32
}

// Driver handles storage and retrieval of vector embeddings.
//
// Drivers are append-only: there is no delete and no update. Adding a
// document whose ID is already stored leaves the stored document untouched.
type Driver interface {
	// Add stores documents that are not already present. It returns the
	// number of documents that were actually inserted.
	Add(ctx context.Context, docs []Document) (int, error)

	// Query returns, for each embedding in order, up to topK stored documents
	// ordered by ascending squared L2 distance. The outer slice always has
	// len(embeddings) entries; inner slices are empty when the store is empty.
	Query(ctx context.Context, embeddings [][]float32, topK int) ([][]QueryResult, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// List returns every stored document in insertion order where the
	// backend preserves it.
	List(ctx context.Context) ([]Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
