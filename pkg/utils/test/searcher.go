package testutils

import (
	"context"

	"github.com/lexfindco/lexfind/pkg/vector"
)

// MockSearcher is a test vector searcher returning preset hits.
type MockSearcher struct {
	// Hits are returned (truncated to k) by Search.
	Hits []vector.Neighbor

	// Err, when set, is returned by Search.
	Err error
}

func NewMockSearcher(hits ...vector.Neighbor) *MockSearcher {
	return &MockSearcher{Hits: hits}
}

func (m *MockSearcher) Search(_ context.Context, _ []float32, k int) ([]vector.Neighbor, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if k > len(m.Hits) {
		k = len(m.Hits)
	}
	return m.Hits[:k], nil
}

func (m *MockSearcher) Size() int {
	return len(m.Hits)
}

func (m *MockSearcher) Close() error {
	return nil
}

var _ vector.Searcher = (*MockSearcher)(nil)
