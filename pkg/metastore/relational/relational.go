// Package relational provides the database-backed metadata store.
//
// Documents are keyed by the external id recorded in the vector index at
// build time, so hits are resolved with one batched "id IN (...)" lookup.
// SQLite (driver "sqlite3") and PostgreSQL (driver "pgx") are supported
// through database/sql.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/metastore"
	"github.com/lexfindco/lexfind/pkg/vector"
)

const (
	// DefaultMaxConns bounds concurrent in-flight lookups so a burst of
	// queries cannot fan out unboundedly against the database.
	DefaultMaxConns = 8

	// DefaultQueryTimeout is the per-lookup timeout budget.
	DefaultQueryTimeout = 5 * time.Second
)

// Config holds configuration for the relational store.
type Config struct {
	// Driver is the database/sql driver name: "sqlite3" or "pgx".
	Driver string

	// DSN is the driver-specific connection string.
	DSN string

	// MaxConns bounds the connection pool. Defaults to DefaultMaxConns.
	MaxConns int

	// QueryTimeout is the per-lookup budget. Defaults to DefaultQueryTimeout.
	QueryTimeout time.Duration
}

// Store implements metastore.Store over database/sql.
type Store struct {
	db           *sql.DB
	driver       string
	queryTimeout time.Duration
	logger       *slog.Logger
}

// New opens the database, applies the schema, and returns a ready store.
func New(ctx context.Context, c Config, logger *slog.Logger) (*Store, error) {
	switch c.Driver {
	case "sqlite3", "pgx":
	default:
		return nil, fmt.Errorf("unsupported metadata store driver: %q", c.Driver)
	}
	if c.DSN == "" {
		return nil, fmt.Errorf("metadata store DSN is required")
	}

	db, err := sql.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxConns := c.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", metastore.ErrUnavailable, err)
	}

	s := &Store{
		db:           db,
		driver:       c.Driver,
		queryTimeout: c.QueryTimeout,
		logger:       logger,
	}
	if s.queryTimeout <= 0 {
		s.queryTimeout = DefaultQueryTimeout
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("relational metadata store ready",
		"driver", c.Driver,
		"max_conns", maxConns,
	)

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var schema string
	if s.driver == "pgx" {
		schema = `
			CREATE TABLE IF NOT EXISTS corpus_metadata (
				id BIGSERIAL PRIMARY KEY,
				external_id TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				book TEXT NOT NULL DEFAULT '',
				title_group TEXT NOT NULL DEFAULT '',
				chapter TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`
	} else {
		schema = `
			CREATE TABLE IF NOT EXISTS corpus_metadata (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				external_id TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				book TEXT NOT NULL DEFAULT '',
				title_group TEXT NOT NULL DEFAULT '',
				chapter TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating corpus_metadata table: %w", err)
	}
	return nil
}

// Resolve looks up the hit ids with a single batched query and returns the
// matching documents re-sorted into the hits' rank order. Ids with no
// matching row are omitted; the caller tolerates the shorter result.
func (s *Store) Resolve(ctx context.Context, hits []vector.Neighbor) ([]document.Document, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	placeholders := make([]string, len(hits))
	args := make([]any, len(hits))
	for i, hit := range hits {
		placeholders[i] = s.placeholder(i + 1)
		args[i] = hit.ID
	}

	query := fmt.Sprintf(`
		SELECT external_id, title, content, book, title_group, COALESCE(chapter, ''), created_at
		FROM corpus_metadata
		WHERE external_id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", metastore.ErrUnavailable, err)
	}
	defer rows.Close()

	// The database does not guarantee IN-lookup order, so collect by id
	// first and walk the hits to restore the distance-rank order.
	byID := make(map[string]document.Document, len(hits))
	for rows.Next() {
		var doc document.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Book,
			&doc.TitleGroup, &doc.Chapter, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		byID[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", metastore.ErrUnavailable, err)
	}

	docs := make([]document.Document, 0, len(hits))
	for _, hit := range hits {
		doc, ok := byID[hit.ID]
		if !ok {
			s.logger.Debug("neighbor id has no metadata row", "external_id", hit.ID)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Seed bulk-inserts documents at migration time. It is idempotent: when the
// table already holds rows, seeding is skipped.
func (s *Store) Seed(ctx context.Context, docs []document.Document) (int, error) {
	existing, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		s.logger.Info("seed skipped, metadata already present", "rows", existing)
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", metastore.ErrUnavailable, err)
	}
	defer tx.Rollback()

	insert := fmt.Sprintf(`
		INSERT INTO corpus_metadata (external_id, title, content, book, title_group, chapter)
		VALUES (%s, %s, %s, %s, %s, %s)
	`, s.placeholder(1), s.placeholder(2), s.placeholder(3),
		s.placeholder(4), s.placeholder(5), s.placeholder(6))

	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx, insert,
			doc.ID, doc.Title, doc.Content, doc.Book, doc.TitleGroup, doc.Chapter,
		); err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}

	s.logger.Info("metadata seeded", "rows", len(docs))
	return len(docs), nil
}

// Count reports the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus_metadata`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", metastore.ErrUnavailable, err)
	}
	return n, nil
}

// DB exposes the underlying handle so collaborators (e.g. the API keystore)
// can share one bounded connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver reports the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// placeholder returns the n-th SQL placeholder for the active dialect.
func (s *Store) placeholder(n int) string {
	if s.driver == "pgx" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var _ metastore.Store = (*Store)(nil)
