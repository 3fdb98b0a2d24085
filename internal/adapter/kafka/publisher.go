package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/config"
	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher announces summaries that became current on a Kafka topic.
// It implements reconcile.SummaryPublisher.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured summary topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// PublishSummary writes one notification keyed by the summary's day, so
// every version of a day lands on the same partition in order.
func (p *Publisher) PublishSummary(ctx context.Context, sum domain.DailySummary) error {
	msg, err := serializeSummary(sum)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish summary %s: %w", sum.Date.Format(time.DateOnly), err)
	}
	p.metrics.MessagesProduced.Inc()
	p.logger.Debug("summary published",
		"day", sum.Date.Format(time.DateOnly),
		"source_id", sum.SourceID,
	)
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeSummary(sum domain.DailySummary) (kafkago.Message, error) {
	data, err := json.Marshal(sum)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(sum.Date.Format(time.DateOnly)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_id", Value: []byte(sum.SourceID)},
			{Key: "updated_at", Value: []byte(sum.UpdatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
