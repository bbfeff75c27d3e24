package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	*memStore
	failFlush bool
	slowGet   bool
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.slowGet {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.memStore.Get(ctx, key)
}

func (s *flakyStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	if s.failFlush {
		return 0, errors.New("connection refused")
	}
	return s.memStore.FlushByPattern(ctx, pattern)
}

func TestGuardedStoreMissesDoNotTrip(t *testing.T) {
	breaker := NewBreaker(nil)
	g := Guard(&flakyStore{memStore: newMemStore()}, breaker, time.Second)
	ctx := context.Background()

	for range 10 {
		_, err := g.Get(ctx, "search:absent")
		assert.True(t, IsMiss(err))
	}
	assert.Equal(t, resilience.StateClosed, breaker.State())

	require.NoError(t, g.Set(ctx, "search:k", "v", time.Minute))
	v, err := g.Get(ctx, "search:k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestGuardedStoreTripsOnErrors(t *testing.T) {
	var opened bool
	breaker := NewBreaker(func(_, to resilience.State) {
		if to == resilience.StateOpen {
			opened = true
		}
	})
	store := &flakyStore{memStore: newMemStore()}
	store.failGet = true
	g := Guard(store, breaker, time.Second)

	for range 5 {
		_, err := g.Get(context.Background(), "search:k")
		assert.Error(t, err)
	}
	assert.True(t, opened)
	_, err := g.Get(context.Background(), "search:k")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestGuardedStoreTimesOut(t *testing.T) {
	g := Guard(&flakyStore{memStore: newMemStore(), slowGet: true}, NewBreaker(nil), 10*time.Millisecond)
	_, err := g.Get(context.Background(), "search:k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardedStoreStaleAfterFailedFlush(t *testing.T) {
	store := &flakyStore{memStore: newMemStore()}
	g := Guard(store, NewBreaker(nil), time.Second)
	ctx := context.Background()
	require.NoError(t, g.Set(ctx, "search:k", "old", time.Minute))

	store.failFlush = true
	_, err := g.FlushByPattern(ctx, "search:*")
	require.Error(t, err)
	assert.True(t, g.Stale())

	_, err = g.Get(ctx, "search:k")
	assert.Error(t, err)
	assert.ErrorIs(t, g.Set(ctx, "search:k", "new", time.Minute), errStale)

	store.failFlush = false
	_, err = g.Get(ctx, "search:k")
	assert.True(t, IsMiss(err))
	assert.False(t, g.Stale())
}

func computeDocs(id int) func() ([]ranker.ScoredDoc, error) {
	return func() ([]ranker.ScoredDoc, error) {
		return []ranker.ScoredDoc{{ID: id}}, nil
	}
}

func TestQueryCacheOverGuardedStore(t *testing.T) {
	store := &flakyStore{memStore: newMemStore()}
	c := New(Guard(store, NewBreaker(nil), time.Second), time.Minute)
	q := mustParse(t, "cat")
	ctx := context.Background()

	docs, hit, err := c.GetOrCompute(ctx, q, "active", computeDocs(1))
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, docs, 1)

	store.failFlush = true
	assert.Error(t, c.Invalidate(ctx))

	// The stale entry must not be served.
	_, hit, err = c.GetOrCompute(ctx, q, "active", computeDocs(2))
	require.NoError(t, err)
	assert.False(t, hit)
}
