// Package embeddings provides text embedding capabilities.
package embeddings

import "context"

// Embedder maps text to fixed-dimension dense vectors. Implementations are
// deterministic for a given model version and hold no per-call state, so a
// single Embedder may be shared across concurrent queries.
type Embedder interface {
	// Embed converts text into a vector embedding. Input that is empty
	// after trimming fails with ErrEmptyInput.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts a batch of texts, preserving input order.
	// Used only at index-build time.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
