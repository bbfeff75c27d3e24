// Package consumer applies document ingest events read from Kafka to the
// index. Malformed payloads are logged and skipped so they do not block the
// partition; index errors are returned, which leaves the message
// uncommitted.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Applier is the part of the Engine the consumer drives.
type Applier interface {
	AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int, source string) error
	RemoveDocument(ctx context.Context, id int, parallel bool, source string) bool
}

// IngestConsumer wraps a Kafka consumer to drive index mutations.
type IngestConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IngestConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IngestConsumer {
	return &IngestConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "ingest-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IngestConsumer) Start(ctx context.Context) error {
	ic.logger.Info("ingest consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler applying each ingest event
// to target. m may be nil.
func HandleMessage(target Applier, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	count := func(op ingestion.Op, status string) {
		if m != nil {
			m.IngestEventsTotal.WithLabelValues(string(op), status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			count("unknown", "malformed")
			return nil
		}
		if err := validator.ValidateIngestEvent(&event); err != nil {
			logger.Error("invalid ingest event",
				"error", err,
				"key", string(key),
				"doc_id", event.ID,
			)
			count(event.Op, "malformed")
			return nil
		}

		switch event.Op {
		case ingestion.OpAdd:
			if err := target.AddDocument(ctx, event.ID, event.Text, event.Status, event.Ratings, indexer.SourceKafka); err != nil {
				count(event.Op, "failed")
				return fmt.Errorf("adding document %d: %w", event.ID, err)
			}
			logger.Debug("document indexed", "doc_id", event.ID)
		case ingestion.OpRemove:
			if !target.RemoveDocument(ctx, event.ID, event.Parallel, indexer.SourceKafka) {
				logger.Debug("remove of unknown document ignored", "doc_id", event.ID)
			}
		}
		count(event.Op, "applied")
		return nil
	}
}
