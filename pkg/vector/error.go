package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index's fixed dimension. At build time this is fatal.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyCorpus is returned when an index is built from zero vectors.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInvalidK is returned when a non-positive k is requested.
	ErrInvalidK = errors.New("k must be positive")
)
