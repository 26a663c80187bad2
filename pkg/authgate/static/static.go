// Package static provides a fixed allowlist gate for development and tests.
package static

import (
	"context"

	"github.com/lexfindco/lexfind/pkg/authgate"
)

// Gate validates keys against an immutable allowlist. Usage recording is a
// no-op; the allowlist gate is not meant for production serving.
type Gate struct {
	keys map[string]authgate.APIKey
}

// New creates a gate from key -> owner pairs.
func New(owners map[string]string) *Gate {
	keys := make(map[string]authgate.APIKey, len(owners))
	var id int64
	for key, owner := range owners {
		id++
		keys[key] = authgate.APIKey{ID: id, Key: key, Owner: owner, Active: true}
	}
	return &Gate{keys: keys}
}

func (g *Gate) Validate(_ context.Context, key string) (*authgate.APIKey, error) {
	k, ok := g.keys[key]
	if !ok {
		return nil, authgate.ErrInvalidKey
	}
	return &k, nil
}

func (g *Gate) RecordUsage(context.Context, int64, string) error {
	return nil
}

var (
	_ authgate.Gate          = (*Gate)(nil)
	_ authgate.UsageRecorder = (*Gate)(nil)
)
