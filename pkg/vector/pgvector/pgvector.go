// Package pgvector provides a PostgreSQL vector driver using the pgvector
// extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/papercomputeco/scout/pkg/vector"
)

// DefaultTable is the table used when Config.Table is empty.
const DefaultTable = "used_topics_memory"

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Driver implements vector.Driver on a PostgreSQL table with a vector column.
type Driver struct {
	pool       *pgxpool.Pool
	table      string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the pgvector driver.
type Config struct {
	// ConnString is a PostgreSQL URL or keyword/value connection string.
	ConnString string

	// Table holds the topics. Must be a plain SQL identifier.
	Table string

	// Dimensions sizes the vector column.
	Dimensions uint
}

// NewDriver ensures the vector extension and topics table exist and opens
// a pool with pgvector types registered on every connection.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.ConnString == "" {
		return nil, errors.New("postgres connection string is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("pgvector embedding dimensions cannot be 0, must be configured")
	}

	table := c.Table
	if table == "" {
		table = DefaultTable
	}
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q: must be a SQL identifier", table)
	}

	// The extension must exist before RegisterTypes can resolve the vector OID.
	conn, err := pgx.Connect(ctx, c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	_, err = conn.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating vector extension: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.AfterConnect = pgxvec.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		pool:       pool,
		table:      table,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("pgvector driver initialized",
		"table", table,
		"dimensions", c.Dimensions,
	)

	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			doc_id TEXT PRIMARY KEY,
			text TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, d.table, d.dimensions))
	if err != nil {
		return fmt.Errorf("creating %s table: %w", d.table, err)
	}
	return nil
}

// Add inserts documents, skipping IDs that already exist.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return 0, fmt.Errorf("document %s: %w: got %d, store has %d", doc.ID, vector.ErrDimensionMismatch, len(doc.Embedding), d.dimensions)
		}
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, doc := range docs {
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s (doc_id, text, embedding) VALUES ($1, $2, $3) ON CONFLICT (doc_id) DO NOTHING`, d.table),
			doc.ID, doc.Text, pgvector.NewVector(doc.Embedding),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to pgvector",
		"requested", len(docs),
		"inserted", inserted,
	)

	return inserted, nil
}

// Query queues one KNN query per embedding in a single pgx batch. The <->
// operator is plain L2 distance, which is squared before returning.
func (d *Driver) Query(ctx context.Context, embeddings [][]float32, topK int) ([][]vector.QueryResult, error) {
	results := make([][]vector.QueryResult, len(embeddings))
	if len(embeddings) == 0 {
		return results, nil
	}
	if topK <= 0 {
		topK = 1
	}

	query := fmt.Sprintf(`
		SELECT doc_id, text, embedding, embedding <-> $1 AS distance
		FROM %s
		ORDER BY embedding <-> $1, seq
		LIMIT $2`, d.table)

	batch := &pgx.Batch{}
	for _, embedding := range embeddings {
		batch.Queue(query, pgvector.NewVector(embedding), topK)
	}

	br := d.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range embeddings {
		rows, err := br.Query()
		if err != nil {
			return nil, fmt.Errorf("querying vectors: %w", err)
		}

		matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (vector.QueryResult, error) {
			var (
				r        vector.QueryResult
				emb      pgvector.Vector
				distance float64
			)
			if err := row.Scan(&r.ID, &r.Text, &emb, &distance); err != nil {
				return r, err
			}
			r.Embedding = emb.Slice()
			r.Distance = float32(distance * distance)
			return r, nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if matches == nil {
			matches = []vector.QueryResult{}
		}
		results[i] = matches
	}

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return d.selectDocuments(ctx, `WHERE doc_id = ANY($1)`, ids)
}

// List returns every document in insertion order.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	return d.selectDocuments(ctx, "")
}

func (d *Driver) selectDocuments(ctx context.Context, where string, args ...any) ([]vector.Document, error) {
	rows, err := d.pool.Query(ctx, fmt.Sprintf(
		`SELECT doc_id, text, embedding FROM %s %s ORDER BY seq`, d.table, where), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (vector.Document, error) {
		var (
			doc vector.Document
			emb pgvector.Vector
		)
		if err := row.Scan(&doc.ID, &doc.Text, &emb); err != nil {
			return doc, err
		}
		doc.Embedding = emb.Slice()
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	if docs == nil {
		docs = []vector.Document{}
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close closes the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}
