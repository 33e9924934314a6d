package events

import (
	"context"
	"fmt"

	"turfbook/pkg/kafka"
	"turfbook/pkg/model"
)

const schemaVersion = "1"

// Publisher announces committed booking changes.
type Publisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
}

// Sender is the part of kafka.Producer the publisher needs.
type Sender interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	sender Sender
	source string
}

func NewKafkaPublisher(sender Sender, source string) Publisher {
	return &kafkaPublisher{sender: sender, source: source}
}

// Publish keys events by slot so consumers see one slot's history in order.
func (p *kafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Booking.SlotKey().String()).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		WithCorrelationID(event.Booking.ID).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}
	return p.sender.Publish(ctx, msg)
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, *model.BookingEvent) error {
	return nil
}
