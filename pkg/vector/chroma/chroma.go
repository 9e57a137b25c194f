// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/papercomputeco/scout/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection holding used topics.
	DefaultCollectionName = "used_topics_memory"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
// Collections are created with the "l2" space, so Chroma reports squared
// Euclidean distances directly.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries bounds connection attempts while Chroma is starting up.
	MaxRetries int

	// RetryDelay is the initial backoff, doubled after each failed attempt
	// and capped at MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver, retrying the collection
// lookup with exponential backoff.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		collectionID, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = collectionID
			logger.Info("connected to chroma",
				"url", c.URL,
				"collection", collectionName,
				"collection_id", collectionID,
				"attempts", attempt,
			)
			return d, nil
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	return nil, fmt.Errorf("%w: collection %q after %d attempts: %w", vector.ErrConnection, collectionName, maxRetries, lastErr)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection
	err := d.do(ctx, http.MethodGet, collectionsPath+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}

	err = d.do(ctx, http.MethodPost, collectionsPath, chromaCreateCollectionRequest{
		Name:     d.collectionName,
		Metadata: map[string]any{"hnsw:space": "l2"},
		GetOr:    true,
	}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

func (d *Driver) collectionURL(op string) string {
	return collectionsPath + "/" + d.collectionID + "/" + op
}

// do sends a JSON request to Chroma and decodes a JSON response into out
// when out is non-nil.
func (d *Driver) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Add stores documents that are not yet present. Chroma's add endpoint
// ignores existing IDs, so the new IDs are resolved first to report an
// accurate insert count.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	existing, err := d.Get(ctx, ids)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, doc := range existing {
		have[doc.ID] = true
	}

	req := chromaAddRequest{}
	for _, doc := range docs {
		if have[doc.ID] {
			continue
		}
		have[doc.ID] = true
		req.IDs = append(req.IDs, doc.ID)
		req.Embeddings = append(req.Embeddings, doc.Embedding)
		req.Documents = append(req.Documents, doc.Text)
	}

	if len(req.IDs) == 0 {
		return 0, nil
	}

	if err := d.do(ctx, http.MethodPost, d.collectionURL("add"), req, nil); err != nil {
		return 0, fmt.Errorf("adding documents: %w", err)
	}

	d.logger.Debug("added documents to chroma",
		"requested", len(docs),
		"inserted", len(req.IDs),
	)

	return len(req.IDs), nil
}

// Query sends every embedding in a single batched request.
func (d *Driver) Query(ctx context.Context, embeddings [][]float32, topK int) ([][]vector.QueryResult, error) {
	results := make([][]vector.QueryResult, len(embeddings))
	for i := range results {
		results[i] = []vector.QueryResult{}
	}
	if len(embeddings) == 0 {
		return results, nil
	}

	if topK <= 0 {
		topK = 1
	}

	var resp chromaQueryResponse
	err := d.do(ctx, http.MethodPost, d.collectionURL("query"), chromaQueryRequest{
		QueryEmbeddings: embeddings,
		NResults:        topK,
		Include:         []string{"documents", "distances", "embeddings"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	for q := range min(len(resp.IDs), len(results)) {
		for i, id := range resp.IDs[q] {
			r := vector.QueryResult{Document: vector.Document{ID: id}}
			if q < len(resp.Distances) && i < len(resp.Distances[q]) {
				r.Distance = resp.Distances[q][i]
			}
			if q < len(resp.Documents) && i < len(resp.Documents[q]) && resp.Documents[q][i] != nil {
				r.Text = *resp.Documents[q][i]
			}
			if q < len(resp.Embeddings) && i < len(resp.Embeddings[q]) {
				r.Embedding = resp.Embeddings[q][i]
			}
			results[q] = append(results[q], r)
		}

		slices.SortStableFunc(results[q], func(a, b vector.QueryResult) int {
			switch {
			case a.Distance < b.Distance:
				return -1
			case a.Distance > b.Distance:
				return 1
			}
			return 0
		})
	}

	d.logger.Debug("queried chroma",
		"queries", len(embeddings),
		"k", topK,
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return d.get(ctx, ids)
}

// List returns every document in the collection.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	return d.get(ctx, nil)
}

func (d *Driver) get(ctx context.Context, ids []string) ([]vector.Document, error) {
	var resp chromaGetResponse
	err := d.do(ctx, http.MethodPost, d.collectionURL("get"), chromaGetRequest{
		IDs:     ids,
		Include: []string{"documents", "embeddings"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting documents: %w", err)
	}

	docs := make([]vector.Document, len(resp.IDs))
	for i, id := range resp.IDs {
		docs[i].ID = id
		if i < len(resp.Documents) && resp.Documents[i] != nil {
			docs[i].Text = *resp.Documents[i]
		}
		if i < len(resp.Embeddings) {
			docs[i].Embedding = resp.Embeddings[i]
		}
	}

	return docs, nil
}

// Count returns the number of documents in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.do(ctx, http.MethodGet, d.collectionURL("count"), nil, &n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}
