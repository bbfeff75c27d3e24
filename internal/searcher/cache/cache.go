// Package cache keeps ranked search results in Redis, keyed by the canonical
// form of the parsed query and the status filter. Concurrent misses for the
// same key are collapsed with singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// IsMiss reports whether a Store.Get error means the key is absent.
var IsMiss = pkgredis.IsNilError

type QueryCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for q under status. Store failures count
// as misses.
func (c *QueryCache) Get(ctx context.Context, q *parser.Query, status string) ([]ranker.ScoredDoc, bool) {
	key := buildKey(q, status)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !IsMiss(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var docs []ranker.ScoredDoc
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", q.RawQuery, "key", key)
	return docs, true
}

func (c *QueryCache) Set(ctx context.Context, q *parser.Query, status string, docs []ranker.ScoredDoc) {
	key := buildKey(q, status)
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or runs computeFn once per key across
// concurrent callers and caches its output. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	q *parser.Query,
	status string,
	computeFn func() ([]ranker.ScoredDoc, error),
) ([]ranker.ScoredDoc, bool, error) {
	if docs, ok := c.Get(ctx, q, status); ok {
		return docs, true, nil
	}
	key := buildKey(q, status)
	val, err, _ := c.group.Do(key, func() (any, error) {
		docs, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, q, status, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredDoc), false, nil
}

// Invalidate drops every cached result. It is called after each add or
// remove so no stale ranking survives a corpus change.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(q *parser.Query, status string) string {
	raw := fmt.Sprintf("%s|status=%s", q.Key(), status)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
