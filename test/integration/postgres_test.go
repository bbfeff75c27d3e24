//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardProducer struct {
	err error
}

func (p discardProducer) PublishBatch(context.Context, []kafka.Event) error { return p.err }

func TestPublishThenLoad(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	pub := publisher.New(publisher.NewPostgresStore(db), discardProducer{}, nil)

	events := []*ingestion.IngestEvent{
		{Op: ingestion.OpAdd, ID: 1, Text: "white cat and fashionable collar", Ratings: []int{8, -3}},
		{Op: ingestion.OpAdd, ID: 2, Text: "fluffy cat fluffy tail", Status: index.StatusActive, Ratings: []int{7, 2, 7}},
		{Op: ingestion.OpAdd, ID: 3, Text: "groomed dog expressive eyes", Status: index.StatusBanned},
		{Op: ingestion.OpAdd, ID: 4, Text: "to be removed"},
		{Op: ingestion.OpRemove, ID: 4},
	}
	for _, ev := range events {
		_, err := pub.Publish(ctx, ev)
		require.NoError(t, err)
	}

	_, err := pub.Publish(ctx, &ingestion.IngestEvent{Op: ingestion.OpAdd, ID: 1, Text: "again"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateID)

	// A failed publish rolls the row back.
	failing := publisher.New(publisher.NewPostgresStore(db), discardProducer{err: errors.New("broker down")}, nil)
	_, err = failing.Publish(ctx, &ingestion.IngestEvent{Op: ingestion.OpAdd, ID: 5, Text: "never stored"})
	require.Error(t, err)

	idx, err := index.NewFromText("and")
	require.NoError(t, err)
	engine := indexer.NewEngine(idx, indexer.Options{})
	res, err := loader.New(db, engine).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Loaded)
	assert.Equal(t, 0, res.Skipped)

	result, err := engine.Search(ctx, "cat", index.StatusActive, false)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.Equal(t, 2, result.Results[0].ID)
	assert.Equal(t, 5, result.Results[0].Rating)

	_, status, err := engine.Match("dog", 3, false)
	require.NoError(t, err)
	assert.Equal(t, index.StatusBanned, status)
}

func TestSnapshotStore(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	store := aggregator.NewStore(db.DB)

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.SaveSnapshot(ctx, analytics.AggregatedStats{TotalSearches: i}))
	}

	snaps, err := store.ListSnapshots(ctx, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(3), snaps[0].Stats.TotalSearches)

	latest, err = store.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(3), latest.Stats.TotalSearches)
}
