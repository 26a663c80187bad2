// Package kafkastream publishes usage events to a Kafka topic.
package kafkastream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lexfindco/lexfind/pkg/eventstream"
)

// DefaultTopic is the topic usage events are published to when none is
// configured.
const DefaultTopic = "lexfind.usage"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic defaults to DefaultTopic if empty.
	Topic string
}

// Publisher implements eventstream.Publisher over a kafka-go Writer.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// New creates a Kafka-backed publisher.
func New(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,

		// The usage stream is observability, not ledger: fire and forget
		// so a slow broker never backs up request handling.
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}

	logger.Info("kafka usage publisher ready",
		"brokers", c.Brokers,
		"topic", topic,
	)

	return &Publisher{writer: writer, logger: logger}, nil
}

// PublishQuery publishes one usage event, keyed by owner so per-owner
// ordering is preserved within a partition.
func (p *Publisher) PublishQuery(ctx context.Context, event *eventstream.QueryServedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling usage event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Owner),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing usage event: %w", err)
	}

	return nil
}

// Close flushes buffered messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
