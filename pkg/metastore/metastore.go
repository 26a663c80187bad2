// Package metastore resolves nearest-neighbor hits to full document
// metadata records.
package metastore

import (
	"context"

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/vector"
)

// Store resolves an ordered list of neighbor hits to Documents.
//
// Implementations must return documents in the rank order of the given hits
// (ascending distance as established by the vector search). The static
// store resolves by position; the relational store resolves by external id
// and re-sorts its batched lookup back into rank order. The relational
// store may return fewer documents than hits when ids have no matching row;
// that is documented policy, not an error.
type Store interface {
	Resolve(ctx context.Context, hits []vector.Neighbor) ([]document.Document, error)

	// Close releases any resources held by the store.
	Close() error
}
