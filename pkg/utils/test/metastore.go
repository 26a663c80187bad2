package testutils

import (
	"context"

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/metastore"
	"github.com/lexfindco/lexfind/pkg/vector"
)

// MockMetaStore is a test metadata store resolving hits from an id map,
// mimicking the relational store's omit-missing policy.
type MockMetaStore struct {
	// Docs maps external id to document.
	Docs map[string]document.Document

	// Err, when set, is returned by Resolve.
	Err error
}

func NewMockMetaStore(docs ...document.Document) *MockMetaStore {
	m := &MockMetaStore{Docs: make(map[string]document.Document)}
	for _, d := range docs {
		m.Docs[d.ID] = d
	}
	return m
}

func (m *MockMetaStore) Resolve(_ context.Context, hits []vector.Neighbor) ([]document.Document, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]document.Document, 0, len(hits))
	for _, hit := range hits {
		if doc, ok := m.Docs[hit.ID]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *MockMetaStore) Close() error {
	return nil
}

var _ metastore.Store = (*MockMetaStore)(nil)
