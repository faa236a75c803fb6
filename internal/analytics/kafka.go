package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// BatchTimeout bounds how long events wait before being flushed. Defaults to 50ms.
	BatchTimeout time.Duration
}

// KafkaPublisher writes events as JSON to a topic, keyed by user id (or
// subject for anonymous events) so one user's events stay ordered.
//
// The writer is asynchronous: Publish returns once the event is queued and
// delivery failures are logged from the writer's completion callback.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher constructs a publisher for cfg.
func NewKafkaPublisher(cfg KafkaConfig, logger zerolog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic required")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  true,
		AllowAutoTopicCreation: false,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Error().Err(err).Int("messages", len(msgs)).Str("topic", cfg.Topic).Msg("analytics delivery failed")
			}
		},
	}
	return &KafkaPublisher{w: w}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := ev.UserID
	if key == "" {
		key = ev.Subject
	}
	msg := kafka.Message{Key: []byte(key), Value: value, Time: ev.At}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending events and releases the writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
