// Package eventstream defines transport-neutral usage events emitted after
// each served query, and the Publisher interface backends implement.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeQueryServed is emitted after a retrieval query completes.
	EventTypeQueryServed = "lexfind.query.served"
)

// QueryServedEvent is the payload published for one served query.
type QueryServedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// Owner is the validated API key owner, never the key itself.
	Owner    string `json:"owner"`
	Endpoint string `json:"endpoint"`

	TopK        int   `json:"top_k"`
	ResultCount int   `json:"result_count"`
	DurationMs  int64 `json:"duration_ms"`
}

// NewQueryServedEvent builds a v1 query event with a fresh event id and
// an emission timestamp of now.
func NewQueryServedEvent(owner, endpoint string, topK, resultCount int, duration time.Duration) *QueryServedEvent {
	return &QueryServedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeQueryServed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Owner:         owner,
		Endpoint:      endpoint,
		TopK:          topK,
		ResultCount:   resultCount,
		DurationMs:    duration.Milliseconds(),
	}
}
