// Package kafka publishes shipment lifecycle events to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/tournevent/shipbridge/internal/shipping"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher implements shipping.EventPublisher. Messages are keyed by order
// id so events of one order stay ordered within a partition.
type Publisher struct {
	w     writer
	topic string
}

// NewPublisher creates a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           2 * time.Second,
		MaxAttempts:            3,
	}, topic)
}

func newPublisherWithWriter(w writer, topic string) *Publisher {
	return &Publisher{w: w, topic: topic}
}

// Publish implements shipping.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, ev shipping.ShipmentEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode shipment event")
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(ev.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	if c, ok := p.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var _ shipping.EventPublisher = (*Publisher)(nil)
