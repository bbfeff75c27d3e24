//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCacheOverRedis(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	_, err := client.FlushByPattern(ctx, "search:*")
	require.NoError(t, err)

	queryCache := cache.New(cache.Guard(client, cache.NewBreaker(nil), time.Second), time.Minute)
	idx, err := index.NewFromText("and")
	require.NoError(t, err)
	engine := indexer.NewEngine(idx, indexer.Options{Cache: queryCache})

	require.NoError(t, engine.AddDocument(ctx, 1, "white cat", index.StatusActive, []int{1}, "test"))

	first, err := engine.Search(ctx, "cat", index.StatusActive, false)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := engine.Search(ctx, "cat", index.StatusActive, false)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)

	// A mutation invalidates cached rankings.
	require.NoError(t, engine.AddDocument(ctx, 2, "fluffy cat", index.StatusActive, []int{9}, "test"))
	third, err := engine.Search(ctx, "cat", index.StatusActive, false)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	require.Len(t, third.Results, 2)
	assert.Equal(t, 2, third.Results[0].ID)

	hits, misses := queryCache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}
