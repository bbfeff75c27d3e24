package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	events []kafka.Event
	err    error
}

func (p *fakeProducer) PublishBatch(_ context.Context, events []kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

// fakeStore mimics a transaction: rows are kept only if publish succeeds.
type fakeStore struct {
	rows map[int]string
}

func (s *fakeStore) Apply(_ context.Context, event *ingestion.IngestEvent, publish func() error) error {
	if event.Op == ingestion.OpAdd {
		if _, ok := s.rows[event.ID]; ok {
			return apperrors.DuplicateID(event.ID)
		}
	}
	if err := publish(); err != nil {
		return err
	}
	if event.Op == ingestion.OpAdd {
		s.rows[event.ID] = event.Text
	} else {
		delete(s.rows, event.ID)
	}
	return nil
}

func TestPublishWithoutStore(t *testing.T) {
	producer := &fakeProducer{}
	m := metrics.New(prometheus.NewRegistry())
	p := New(nil, producer, m)

	resp, err := p.Publish(context.Background(), &ingestion.IngestEvent{
		Op: ingestion.OpAdd, ID: 42, Text: "cat", Status: index.StatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.DocumentID)
	assert.Equal(t, "accepted", resp.Status)
	assert.False(t, resp.Persisted)

	require.Len(t, producer.events, 1)
	assert.Equal(t, "42", producer.events[0].Key)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestPublishedTotal.WithLabelValues("add", "published")))
}

func TestPublishPersistsBeforeCommit(t *testing.T) {
	store := &fakeStore{rows: map[int]string{}}
	producer := &fakeProducer{}
	p := New(store, producer, nil)
	ctx := context.Background()

	resp, err := p.Publish(ctx, &ingestion.IngestEvent{Op: ingestion.OpAdd, ID: 1, Text: "dog"})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "dog", store.rows[1])

	_, err = p.Publish(ctx, &ingestion.IngestEvent{Op: ingestion.OpAdd, ID: 1, Text: "cat"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateID)
	assert.Len(t, producer.events, 1)

	_, err = p.Publish(ctx, &ingestion.IngestEvent{Op: ingestion.OpRemove, ID: 1})
	require.NoError(t, err)
	assert.Empty(t, store.rows)
	assert.Len(t, producer.events, 2)
}

func TestPublishFailureKeepsNoRow(t *testing.T) {
	store := &fakeStore{rows: map[int]string{}}
	producer := &fakeProducer{err: errors.New("broker down")}
	m := metrics.New(prometheus.NewRegistry())
	p := New(store, producer, m)
	p.retry.InitialDelay = 1

	_, err := p.Publish(context.Background(), &ingestion.IngestEvent{Op: ingestion.OpAdd, ID: 9, Text: "x"})
	require.Error(t, err)
	assert.Empty(t, store.rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestPublishedTotal.WithLabelValues("add", "failed")))
}
