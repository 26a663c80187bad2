// Package vector provides interfaces and implementations for nearest-neighbor
// search over fixed-dimension embedding vectors.
package vector

import "context"

// Neighbor is a single nearest-neighbor hit.
type Neighbor struct {
	// Position is the zero-based slot the vector occupied at build time.
	// The static metadata store resolves hits positionally.
	Position int

	// ID is the external document id recorded for the position at build
	// time. The relational metadata store resolves hits by this id.
	ID string

	// Distance is the squared Euclidean (L2) distance to the query.
	// Lower means closer.
	Distance float32
}

// Searcher answers k-nearest-neighbor queries against a built index.
// Search is read-only and must be safe for concurrent callers.
type Searcher interface {
	// Search returns up to k stored vectors closest to query, ordered by
	// ascending distance with ties broken by smaller position. When k
	// exceeds the corpus size all entries are returned; this is explicit
	// policy, not an error.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)

	// Size reports the number of indexed vectors.
	Size() int

	// Close releases any resources held by the searcher.
	Close() error
}
