// Package kafka publishes fixture verdicts to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"fixrun/internal/domain/execution"
	"fixrun/internal/ports"
)

var _ ports.VerdictPublisher = (*Publisher)(nil)

// PublisherConfig configures the Kafka-based verdict publisher.
type PublisherConfig struct {
	Brokers []string
	Topic   string
}

// Publisher writes verdicts and batch summaries to Kafka, keyed by batch id
// so that one batch lands on one partition in order.
type Publisher struct {
	writer messageWriter
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher constructs a Publisher using the supplied configuration.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker must be provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic must be provided")
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		AllowAutoTopicCreation: true,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
	}

	return newPublisher(writer), nil
}

func newPublisher(writer messageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// PublishVerdict serializes and writes one fixture verdict.
func (p *Publisher) PublishVerdict(ctx context.Context, batch execution.Batch, verdict execution.Verdict) error {
	payload, err := encodeVerdict(batch, verdict)
	if err != nil {
		return err
	}
	return p.write(ctx, batch.ID, payload)
}

// PublishSummary serializes and writes the final batch summary.
func (p *Publisher) PublishSummary(ctx context.Context, batch execution.Batch, summary execution.RunSummary) error {
	payload, err := encodeSummary(batch, summary)
	if err != nil {
		return err
	}
	return p.write(ctx, batch.ID, payload)
}

func (p *Publisher) write(ctx context.Context, key string, payload []byte) error {
	if p.writer == nil {
		return fmt.Errorf("publisher is not initialized")
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// Close releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
