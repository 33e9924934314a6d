package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"turfbook/pkg/kafka"
)

// Metrics counts Kafka traffic for one process.
type Metrics struct {
	messagesPublished       atomic.Int64
	messagesPublishedFailed atomic.Int64
	publishDurationTotal    atomic.Int64

	messagesConsumed       atomic.Int64
	messagesConsumedFailed atomic.Int64
	consumeDurationTotal   atomic.Int64
}

// Snapshot is a point-in-time copy of Metrics, suitable for logging.
type Snapshot struct {
	Published          int64
	PublishFailed      int64
	AvgPublishDuration time.Duration
	Consumed           int64
	ConsumeFailed      int64
	AvgConsumeDuration time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() Snapshot {
	published := m.messagesPublished.Load()
	consumed := m.messagesConsumed.Load()
	s := Snapshot{
		Published:     published,
		PublishFailed: m.messagesPublishedFailed.Load(),
		Consumed:      consumed,
		ConsumeFailed: m.messagesConsumedFailed.Load(),
	}
	if published > 0 {
		s.AvgPublishDuration = time.Duration(m.publishDurationTotal.Load() / published)
	}
	if consumed > 0 {
		s.AvgConsumeDuration = time.Duration(m.consumeDurationTotal.Load() / consumed)
	}
	return s
}

// LogAttrs renders the snapshot as logger key/value pairs.
func (s Snapshot) LogAttrs() []any {
	return []any{
		"published", s.Published,
		"publish_failed", s.PublishFailed,
		"avg_publish_duration", s.AvgPublishDuration,
		"consumed", s.Consumed,
		"consume_failed", s.ConsumeFailed,
		"avg_consume_duration", s.AvgConsumeDuration,
	}
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		if err != nil {
			m.messagesPublishedFailed.Add(1)
		} else {
			m.messagesPublished.Add(1)
			m.publishDurationTotal.Add(int64(time.Since(start)))
		}
		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		if err != nil {
			m.messagesConsumedFailed.Add(1)
		} else {
			m.messagesConsumed.Add(1)
			m.consumeDurationTotal.Add(int64(time.Since(start)))
		}
		return err
	}
}
