// Package engine orchestrates a retrieval query: embed the text, search the
// vector index, resolve the neighbors to metadata records.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/embeddings"
	"github.com/lexfindco/lexfind/pkg/logger"
	"github.com/lexfindco/lexfind/pkg/metastore"
	"github.com/lexfindco/lexfind/pkg/vector"
)

// DefaultMaxTopK is the ceiling applied to requested k when none is
// configured.
const DefaultMaxTopK = 10

// ErrInvalidTopK is returned when the requested k is outside (0, MaxTopK].
// It is a client error and is never retried.
var ErrInvalidTopK = errors.New("top_k out of allowed range")

// Config holds the collaborators the engine orchestrates. All of them are
// created once at process startup and shared across concurrent queries.
type Config struct {
	Embedder embeddings.Embedder
	Searcher vector.Searcher
	Store    metastore.Store

	// MaxTopK caps the number of neighbors a single query may request.
	// Defaults to DefaultMaxTopK.
	MaxTopK int

	Logger *slog.Logger
}

// Engine executes retrieval queries. It holds no per-query state; the only
// mutation point is a corpus rebuild, which the index serializes itself.
type Engine struct {
	embedder embeddings.Embedder
	searcher vector.Searcher
	store    metastore.Store
	maxTopK  int
	logger   *slog.Logger
}

// New validates the configuration and returns a ready engine.
func New(c Config) (*Engine, error) {
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Searcher == nil {
		return nil, errors.New("vector searcher is required")
	}
	if c.Store == nil {
		return nil, errors.New("metadata store is required")
	}

	maxTopK := c.MaxTopK
	if maxTopK <= 0 {
		maxTopK = DefaultMaxTopK
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Engine{
		embedder: c.Embedder,
		searcher: c.Searcher,
		store:    c.Store,
		maxTopK:  maxTopK,
		logger:   c.Logger,
	}, nil
}

// MaxTopK reports the configured ceiling for requested k.
func (e *Engine) MaxTopK() int {
	return e.maxTopK
}

// Query returns up to k documents ranked by ascending distance to the
// embedded text. The result may be shorter than k when the relational
// store has no row for a neighbor id; that degraded result is tolerated,
// not an error.
func (e *Engine) Query(ctx context.Context, text string, k int) ([]document.Document, error) {
	if k <= 0 || k > e.maxTopK {
		return nil, fmt.Errorf("%w: got %d, allowed 1..%d", ErrInvalidTopK, k, e.maxTopK)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, embeddings.ErrEmptyInput
	}

	start := time.Now()

	queryVec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := e.searcher.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	docs, err := e.store.Resolve(ctx, hits)
	if err != nil {
		return nil, fmt.Errorf("resolving metadata: %w", err)
	}

	e.logger.Debug("query served",
		"top_k", k,
		"hits", len(hits),
		"results", len(docs),
		"duration", time.Since(start),
	)

	return docs, nil
}

// Close tears down the engine's process-wide handles in reverse dependency
// order. Called once at shutdown.
func (e *Engine) Close() error {
	var errs []error
	if err := e.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing metadata store: %w", err))
	}
	if err := e.searcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing searcher: %w", err))
	}
	if err := e.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing embedder: %w", err))
	}
	return errors.Join(errs...)
}
