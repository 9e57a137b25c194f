// Package qdrant provides a Qdrant vector database driver implementation
// over Qdrant's gRPC API.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/scout/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection holding used topics.
	DefaultCollectionName = "used_topics_memory"

	defaultPort = 6334

	payloadDocID   = "doc_id"
	payloadText    = "text"
	payloadAddedAt = "added_at"
)

// pointNamespace derives Qdrant point UUIDs from document IDs.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("scout/topics"))

// Driver implements vector.Driver on a Qdrant collection using the Euclid
// distance. Qdrant reports plain L2 distance, which is squared before
// returning.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is "host" or "host:port" of the gRPC endpoint.
	Target string

	// APIKey is optional.
	APIKey string
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, errors.New("qdrant target is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, collection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Euclid,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to qdrant",
		"target", c.Target,
		"collection", collection,
		"created", !exists,
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// PointID returns the Qdrant point UUID for a document ID.
func PointID(docID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(docID)).String()
}

// Add upserts the documents that are not already in the collection.
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

	now := time.Now().UnixNano()
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for i, doc := range docs {
		if have[doc.ID] {
			continue
		}
		have[doc.ID] = true

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(doc.ID)),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadDocID:   doc.ID,
				payloadText:    doc.Text,
				payloadAddedAt: now + int64(i),
			}),
		})
	}

	if len(points) == 0 {
		return 0, nil
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return 0, fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		"requested", len(docs),
		"inserted", len(points),
	)

	return len(points), nil
}

// Query sends every embedding in one batch request.
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
	limit := uint64(topK)

	queries := make([]*qdrant.QueryPoints, len(embeddings))
	for i, embedding := range embeddings {
		queries[i] = &qdrant.QueryPoints{
			CollectionName: d.collection,
			Query:          qdrant.NewQuery(embedding...),
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		}
	}

	batches, err := d.client.QueryBatch(ctx, &qdrant.QueryBatchPoints{
		CollectionName: d.collection,
		QueryPoints:    queries,
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	for q := range min(len(batches), len(results)) {
		for _, point := range batches[q].GetResult() {
			results[q] = append(results[q], vector.QueryResult{
				Document: documentFrom(point.GetPayload(), point.GetVectors()),
				Distance: point.GetScore() * point.GetScore(),
			})
		}
	}

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(PointID(id))
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, point := range points {
		docs = append(docs, documentFrom(point.GetPayload(), point.GetVectors()))
	}
	return docs, nil
}

// List scrolls the whole collection and orders documents by insertion time.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	n, err := d.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []vector.Document{}, nil
	}

	limit := uint32(n)
	points, err := d.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: d.collection,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}

	slices.SortStableFunc(points, func(a, b *qdrant.RetrievedPoint) int {
		ta := a.GetPayload()[payloadAddedAt].GetIntegerValue()
		tb := b.GetPayload()[payloadAddedAt].GetIntegerValue()
		switch {
		case ta < tb:
			return -1
		case ta > tb:
			return 1
		}
		return 0
	})

	docs := make([]vector.Document, 0, len(points))
	for _, point := range points {
		docs = append(docs, documentFrom(point.GetPayload(), point.GetVectors()))
	}
	return docs, nil
}

// Count returns the exact number of points in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func documentFrom(payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) vector.Document {
	return vector.Document{
		ID:        payload[payloadDocID].GetStringValue(),
		Text:      payload[payloadText].GetStringValue(),
		Embedding: vectors.GetVector().GetData(),
	}
}
