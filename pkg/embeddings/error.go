package embeddings

import "errors"

var (
	// ErrEmptyInput is returned when the text to embed is empty after
	// trimming. This is a client error and is never retried.
	ErrEmptyInput = errors.New("empty input text")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")
)
