// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/scout/pkg/vector"
)

// DefaultCollection is the table prefix used when Config.Collection is empty.
const DefaultCollection = "used_topics_memory"

var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	docsTable  string
	vecTable   string
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint

	// Collection prefixes the two tables backing the store. Must be a plain
	// SQL identifier.
	Collection string
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	if !collectionPattern.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q: must be a SQL identifier", collection)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	d := &Driver{
		db:         db,
		dimensions: c.Dimensions,
		docsTable:  collection + "_documents",
		vecTable:   collection + "_embeddings",
		logger:     logger,
	}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"collection", collection,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return d, nil
}

// migrate creates the document table and the vec0 virtual table.
// vec0 tables use integer rowids, so documents map their string ID to a rowid.
func (d *Driver) migrate() error {
	_, err := d.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT ''
		)
	`, d.docsTable))
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d])`,
		d.vecTable, d.dimensions,
	)
	if _, err := d.db.Exec(createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	return nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func (d *Driver) checkDimensions(embedding []float32) error {
	if uint(len(embedding)) != d.dimensions {
		return fmt.Errorf("%w: got %d, store has %d", vector.ErrDimensionMismatch, len(embedding), d.dimensions)
	}
	return nil
}

// Add stores documents that are not yet present. Existing IDs are left as is.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	for _, doc := range docs {
		if err := d.checkDimensions(doc.Embedding); err != nil {
			return 0, fmt.Errorf("document %s: %w", doc.ID, err)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, doc := range docs {
		result, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(doc_id, text) VALUES (?, ?) ON CONFLICT(doc_id) DO NOTHING`, d.docsTable),
			doc.ID, doc.Text,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking insert of document %s: %w", doc.ID, err)
		}
		if affected == 0 {
			continue
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, d.vecTable),
			rowID, serializeFloat32(doc.Embedding),
		); err != nil {
			return 0, fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec",
		"requested", len(docs),
		"inserted", inserted,
	)

	return inserted, nil
}

// Query runs one KNN search per embedding. sqlite-vec reports plain L2
// distance, which is squared before returning.
func (d *Driver) Query(ctx context.Context, embeddings [][]float32, topK int) ([][]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 1
	}

	results := make([][]vector.QueryResult, len(embeddings))
	for i, embedding := range embeddings {
		if err := d.checkDimensions(embedding); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}

		matches, err := d.queryOne(ctx, embedding, topK)
		if err != nil {
			return nil, err
		}
		results[i] = matches
	}

	d.logger.Debug("queried sqlite-vec",
		"queries", len(embeddings),
		"k", topK,
	)

	return results, nil
}

func (d *Driver) queryOne(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT d.doc_id, d.text, ve.embedding, ve.distance
		FROM %s ve
		INNER JOIN %s d ON d.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, d.vecTable, d.docsTable), serializeFloat32(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.QueryResult{}
	for rows.Next() {
		var (
			docID, text string
			blob        []byte
			distance    float64
		)
		if err := rows.Scan(&docID, &text, &blob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		emb, err := deserializeFloat32(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding of %s: %w", docID, err)
		}

		results = append(results, vector.QueryResult{
			Document: vector.Document{ID: docID, Text: text, Embedding: emb},
			Distance: float32(distance * distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	return d.selectDocuments(ctx,
		fmt.Sprintf(`WHERE d.doc_id IN (%s)`, strings.Join(placeholders, ",")),
		args...,
	)
}

// List returns every document in insertion order.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	return d.selectDocuments(ctx, "")
}

func (d *Driver) selectDocuments(ctx context.Context, where string, args ...any) ([]vector.Document, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT d.doc_id, d.text, ve.embedding
		FROM %s d
		INNER JOIN %s ve ON ve.rowid = d.rowid
		%s
		ORDER BY d.rowid
	`, d.docsTable, d.vecTable, where), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []vector.Document{}
	for rows.Next() {
		var (
			doc  vector.Document
			blob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if doc.Embedding, err = deserializeFloat32(blob); err != nil {
			return nil, fmt.Errorf("decoding embedding of %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.docsTable)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}
