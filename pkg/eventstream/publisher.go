package eventstream

import (
	"context"
	"errors"
)

// ErrNilEvent indicates a nil event payload was provided to a publisher.
var ErrNilEvent = errors.New("nil query event")

// Publisher publishes query events to an event stream backend.
// Publish failures must never fail the request that produced the event;
// callers log and continue.
type Publisher interface {
	PublishQuery(ctx context.Context, event *QueryServedEvent) error

	// Close flushes and releases the backend connection.
	Close() error
}
