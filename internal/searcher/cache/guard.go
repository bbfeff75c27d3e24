package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

var errStale = errors.New("cache awaiting flush after failed invalidation")

// GuardedStore bounds every Store call with a timeout and a circuit breaker
// so a slow or failing Redis degrades searches to uncached instead of
// stalling them. A failed flush marks the store stale: reads and writes are
// refused until a later flush succeeds, so results computed before a
// mutation are never served after it.
type GuardedStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
	timeout time.Duration
	stale   atomic.Bool
}

// NewBreaker returns a circuit breaker that does not count cache misses as
// failures.
func NewBreaker(onStateChange func(from, to resilience.State)) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker("redis-cache", resilience.BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     10 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !IsMiss(err)
		},
		OnStateChange: onStateChange,
	})
}

func Guard(store Store, breaker *resilience.CircuitBreaker, timeout time.Duration) *GuardedStore {
	return &GuardedStore{store: store, breaker: breaker, timeout: timeout}
}

func (g *GuardedStore) Get(ctx context.Context, key string) (string, error) {
	if g.stale.Load() {
		if _, err := g.FlushByPattern(ctx, keyPrefix+"*"); err != nil {
			return "", err
		}
	}
	var value string
	err := g.breaker.Execute(func() error {
		v, err := resilience.CallWithTimeout(ctx, g.timeout, "cache get", func(ctx context.Context) (string, error) {
			return g.store.Get(ctx, key)
		})
		value = v
		return err
	})
	return value, err
}

func (g *GuardedStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if g.stale.Load() {
		return errStale
	}
	return g.breaker.Execute(func() error {
		_, err := resilience.CallWithTimeout(ctx, g.timeout, "cache set", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.store.Set(ctx, key, value, ttl)
		})
		return err
	})
}

// FlushByPattern bypasses the breaker: an invalidation must always be
// attempted.
func (g *GuardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	n, err := resilience.CallWithTimeout(ctx, g.timeout, "cache flush", func(ctx context.Context) (int64, error) {
		return g.store.FlushByPattern(ctx, pattern)
	})
	g.stale.Store(err != nil)
	return n, err
}

// Stale reports whether a failed invalidation is still pending.
func (g *GuardedStore) Stale() bool {
	return g.stale.Load()
}
