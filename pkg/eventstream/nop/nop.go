// Package nop provides a no-op event publisher used when no stream backend
// is configured.
package nop

import (
	"context"

	"github.com/lexfindco/lexfind/pkg/eventstream"
)

// Publisher discards all events.
type Publisher struct{}

func New() *Publisher {
	return &Publisher{}
}

func (*Publisher) PublishQuery(_ context.Context, event *eventstream.QueryServedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

func (*Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
