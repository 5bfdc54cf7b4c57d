// Package kafka publishes operation audit events to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mailsweep/mailsweep/internal/config"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

// WriterInterface abstracts kafka-go's Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes audit events. Safe for concurrent use.
type Publisher struct {
	writer WriterInterface
	topic  string
	logger logging.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// NewPublisher builds a Publisher from cfg.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: writer, topic: cfg.Topic, logger: logger}, nil
}

// NewPublisherWithWriter wires a custom writer. Used by tests.
func NewPublisherWithWriter(writer WriterInterface, topic string, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{writer: writer, topic: topic, logger: logger}
}

// Publish writes one keyed event.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		p.logger.Error("publish audit event failed",
			logging.String("topic", p.topic),
			logging.String("key", key),
			logging.Err(err),
		)
		return apperrors.Wrap(err, apperrors.CodeMessageQueueError, "publish audit event")
	}
	p.published.Add(1)
	return nil
}

// Stats returns the publish counters.
func (p *Publisher) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
