package testutils

import (
	"context"
	"sync"

	"github.com/lexfindco/lexfind/pkg/authgate"
)

// MockGate is a test gate that accepts configured keys and records usage
// calls in memory.
type MockGate struct {
	mu sync.Mutex

	// Keys maps accepted key strings to their records.
	Keys map[string]authgate.APIKey

	// Recorded accumulates (keyID, endpoint) pairs from RecordUsage.
	Recorded []RecordedUsage
}

// RecordedUsage is one captured RecordUsage call.
type RecordedUsage struct {
	KeyID    int64
	Endpoint string
}

func NewMockGate(keys ...authgate.APIKey) *MockGate {
	g := &MockGate{Keys: make(map[string]authgate.APIKey)}
	for _, k := range keys {
		g.Keys[k.Key] = k
	}
	return g
}

func (g *MockGate) Validate(_ context.Context, key string) (*authgate.APIKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	k, ok := g.Keys[key]
	if !ok || !k.Active {
		return nil, authgate.ErrInvalidKey
	}
	return &k, nil
}

func (g *MockGate) RecordUsage(_ context.Context, keyID int64, endpoint string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Recorded = append(g.Recorded, RecordedUsage{KeyID: keyID, Endpoint: endpoint})
	return nil
}

var (
	_ authgate.Gate          = (*MockGate)(nil)
	_ authgate.UsageRecorder = (*MockGate)(nil)
)
