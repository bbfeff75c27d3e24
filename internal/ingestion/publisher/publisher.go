// Package publisher accepts document add/remove events over HTTP-facing
// code paths, records them in PostgreSQL when a store is configured, and
// publishes them to the ingest topic the consumer applies to the index.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

// Producer ships events to Kafka. *kafka.Producer satisfies it.
type Producer interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// DocumentStore applies event to the system of record and calls publish
// before committing, so a row is only kept when its event was published.
type DocumentStore interface {
	Apply(ctx context.Context, event *ingestion.IngestEvent, publish func() error) error
}

type Publisher struct {
	store    DocumentStore
	producer Producer
	retry    resilience.RetryConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Publisher. store and m may be nil.
func New(store DocumentStore, producer Producer, m *metrics.Metrics) *Publisher {
	return &Publisher{
		store:    store,
		producer: producer,
		retry:    resilience.RetryConfig{MaxAttempts: 3},
		metrics:  m,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Publish persists and publishes event. Events are keyed by document id so
// all operations on one document stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, event *ingestion.IngestEvent) (*ingestion.IngestResponse, error) {
	publish := func() error {
		return resilience.Retry(ctx, "ingest-publish", p.retry, func() error {
			return p.producer.PublishBatch(ctx, []kafka.Event{{
				Key:   strconv.Itoa(event.ID),
				Value: event,
			}})
		})
	}

	var err error
	if p.store != nil {
		err = p.store.Apply(ctx, event, publish)
	} else {
		err = publish()
	}
	if err != nil {
		p.count(event.Op, "failed")
		return nil, fmt.Errorf("publishing %s event for document %d: %w", event.Op, event.ID, err)
	}
	p.count(event.Op, "published")
	p.logger.Debug("ingest event published", "doc_id", event.ID, "op", event.Op)
	return &ingestion.IngestResponse{
		DocumentID: event.ID,
		Op:         event.Op,
		Status:     "accepted",
		Persisted:  p.store != nil,
	}, nil
}

func (p *Publisher) count(op ingestion.Op, status string) {
	if p.metrics != nil {
		p.metrics.IngestPublishedTotal.WithLabelValues(string(op), status).Inc()
	}
}
