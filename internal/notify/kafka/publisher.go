// Package kafka publishes security alerts to a Kafka topic so SIEM pipelines
// can consume them off-host.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"aegis/internal/notify"
)

// Publisher delivers alerts to Kafka keyed by subject so per-subject ordering
// is preserved across partitions.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects a Kafka publisher to the given brokers and topic.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Notify produces the alert asynchronously. Delivery failures are logged and
// counted by franz-go; the caller is never blocked on broker availability.
func (p *Publisher) Notify(ctx context.Context, alert notify.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(alert.Subject),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("alert publish failed",
				"alert_id", alert.ID,
				"topic", p.topic,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes outstanding records and closes the client.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	p.client.Close()
	return nil
}
