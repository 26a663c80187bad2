package metastore

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers should surface it as a service error, not a client error.
var ErrUnavailable = errors.New("metadata store unavailable")

// OutOfRangeError indicates a neighbor position beyond the corpus size in
// the static store. It means the index and metadata artifacts are out of
// sync, which is fatal-on-detection: fail the request, never coerce it to
// an empty result.
type OutOfRangeError struct {
	Position int
	Size     int
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("position %d out of range for corpus of size %d", e.Position, e.Size)
}
