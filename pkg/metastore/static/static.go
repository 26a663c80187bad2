// Package static provides the in-memory metadata store backed by the
// metadata JSON artifact.
//
// The artifact is an ordered JSON array parallel to the vector index: the
// document at position i describes the vector at position i. It is loaded
// once at startup and never mutated, so lookups need no locking.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/metastore"
	"github.com/lexfindco/lexfind/pkg/vector"
)

// Store resolves hits positionally against an immutable in-memory corpus.
type Store struct {
	docs []document.Document
}

// New creates a store over the given ordered documents.
func New(docs []document.Document) *Store {
	return &Store{docs: docs}
}

// Load reads the metadata JSON artifact at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata artifact: %w", err)
	}

	var docs []document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing metadata artifact: %w", err)
	}

	return New(docs), nil
}

// Resolve returns the documents at the hit positions, in hit order.
// A position at or beyond the corpus size fails with OutOfRangeError.
func (s *Store) Resolve(_ context.Context, hits []vector.Neighbor) ([]document.Document, error) {
	docs := make([]document.Document, len(hits))
	for i, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(s.docs) {
			return nil, metastore.OutOfRangeError{Position: hit.Position, Size: len(s.docs)}
		}
		docs[i] = s.docs[hit.Position]
	}
	return docs, nil
}

// Size reports the number of documents in the corpus.
func (s *Store) Size() int {
	return len(s.docs)
}

// Close releases resources held by the store. The static store holds only
// heap memory, so this is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ metastore.Store = (*Store)(nil)
