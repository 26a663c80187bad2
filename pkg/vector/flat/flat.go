// Package flat provides an in-process flat (brute-force) L2 index.
//
// Every query is compared against every stored vector, which is exact and
// fast enough for corpora in the tens of thousands of chunks. The index is
// built once at startup from a persisted artifact and is read-only
// afterwards; rebuilds swap the backing slices under an exclusive lock.
package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lexfindco/lexfind/pkg/vector"
)

// Index is a fixed-dimension flat index over squared-L2 distance.
type Index struct {
	// mu allows unlimited concurrent searches and an exclusive writer
	// during Build.
	mu sync.RWMutex

	dim  int
	ids  []string
	vecs [][]float32
}

// New creates an empty index with the given fixed dimension.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", vector.ErrDimensionMismatch, dim)
	}
	return &Index{dim: dim}, nil
}

// Build bulk-loads the index from parallel ids and vectors. It replaces any
// previously loaded corpus in a single swap, so a rebuild never exposes a
// partially loaded index to concurrent searches.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(vectors) == 0 {
		return vector.ErrEmptyCorpus
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	for pos, v := range vectors {
		if len(v) != i.dim {
			return fmt.Errorf("%w: vector at position %d has dimension %d, index expects %d",
				vector.ErrDimensionMismatch, pos, len(v), i.dim)
		}
	}

	ids = append([]string(nil), ids...)
	vecs := make([][]float32, len(vectors))
	for pos, v := range vectors {
		vecs[pos] = append([]float32(nil), v...)
	}

	i.mu.Lock()
	i.ids = ids
	i.vecs = vecs
	i.mu.Unlock()

	return nil
}

// Search returns the k nearest stored vectors by squared L2 distance,
// ascending, ties broken by smaller position. A k larger than the corpus
// returns every entry.
func (i *Index) Search(_ context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", vector.ErrInvalidK, k)
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			vector.ErrDimensionMismatch, len(query), i.dim)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.vecs) == 0 {
		return nil, vector.ErrEmptyCorpus
	}

	hits := make([]vector.Neighbor, len(i.vecs))
	for pos, v := range i.vecs {
		hits[pos] = vector.Neighbor{
			Position: pos,
			ID:       i.ids[pos],
			Distance: squaredL2(query, v),
		}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		return hits[a].Position < hits[b].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size reports the number of indexed vectors.
func (i *Index) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vecs)
}

// Dimension reports the fixed dimension of the index.
func (i *Index) Dimension() int {
	return i.dim
}

// Close releases resources held by the index. The flat index holds only
// heap memory, so this is a no-op kept for interface symmetry.
func (i *Index) Close() error {
	return nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for n := range a {
		d := a[n] - b[n]
		sum += d * d
	}
	return sum
}

var _ vector.Searcher = (*Index)(nil)
