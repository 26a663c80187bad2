// Package sqlitevec provides a SQLite-backed vector searcher using sqlite-vec.
//
// It trades the flat index's in-RAM corpus for a vec0 virtual table, which
// keeps memory flat for corpora too large to hold resident while preserving
// the same Searcher contract.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lexfindco/lexfind/pkg/vector"
)

// Searcher implements vector.Searcher on top of a sqlite-vec vec0 table.
type Searcher struct {
	db     *sql.DB
	dim    int
	logger *slog.Logger
}

// Config holds configuration for the sqlite-vec searcher.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the fixed embedding dimension.
	Dimensions int
}

// New opens (or creates) the sqlite-vec database at c.DBPath.
func New(c Config, logger *slog.Logger) (*Searcher, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", vector.ErrDimensionMismatch)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables are keyed by integer rowid, so the mapping table
	// carries the build-time position and external document id per rowid.
	// Rowids start at 1; position = rowid - 1.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS corpus_documents (
			rowid INTEGER PRIMARY KEY,
			doc_id TEXT NOT NULL UNIQUE
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS corpus_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec searcher initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Searcher{db: db, dim: c.Dimensions, logger: logger}, nil
}

// Build bulk-loads the corpus, replacing any previous contents. Build is an
// exclusive maintenance operation and must not overlap with Search.
func (s *Searcher) Build(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(vectors) == 0 {
		return vector.ErrEmptyCorpus
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_documents`); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_embeddings`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}

	for pos, vec := range vectors {
		if len(vec) != s.dim {
			return fmt.Errorf("%w: vector at position %d has dimension %d, index expects %d",
				vector.ErrDimensionMismatch, pos, len(vec), s.dim)
		}

		rowID := int64(pos) + 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO corpus_documents(rowid, doc_id) VALUES (?, ?)`,
			rowID, ids[pos],
		); err != nil {
			return fmt.Errorf("inserting document %s: %w", ids[pos], err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO corpus_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(vec),
		); err != nil {
			return fmt.Errorf("inserting embedding for %s: %w", ids[pos], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("corpus loaded into sqlite-vec", "count", len(ids))
	return nil
}

// Search returns the k nearest stored vectors via a vec0 KNN query.
func (s *Searcher) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", vector.ErrInvalidK, k)
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			vector.ErrDimensionMismatch, len(query), s.dim)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			ce.rowid,
			d.doc_id,
			ce.distance
		FROM corpus_embeddings ce
		INNER JOIN corpus_documents d ON d.rowid = ce.rowid
		WHERE ce.embedding MATCH ?
			AND ce.k = ?
		ORDER BY ce.distance, ce.rowid
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []vector.Neighbor
	for rows.Next() {
		var rowID int64
		var docID string
		var distance float64
		if err := rows.Scan(&rowID, &docID, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		hits = append(hits, vector.Neighbor{
			Position: int(rowID) - 1,
			ID:       docID,
			// vec0 reports Euclidean distance; squared to match the
			// flat index's scale.
			Distance: float32(distance * distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	if len(hits) == 0 && s.Size() == 0 {
		return nil, vector.ErrEmptyCorpus
	}

	return hits, nil
}

// Size reports the number of indexed vectors.
func (s *Searcher) Size() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM corpus_documents`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the underlying database handle.
func (s *Searcher) Close() error {
	return s.db.Close()
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

var _ vector.Searcher = (*Searcher)(nil)
