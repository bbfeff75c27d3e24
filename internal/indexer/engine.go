// Package indexer wires the inverted index to the rest of the service. The
// Engine serializes mutations against queries with a read/write lock, keeps
// the result cache coherent, and reports every operation to analytics and
// Prometheus. The HTTP handler, the Kafka consumer and the Postgres loader
// all go through it.
package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

// Sources of index mutations, reported in IndexEvents.
const (
	SourceHTTP     = "http"
	SourceKafka    = "kafka"
	SourcePostgres = "postgres"
	SourceDedup    = "dedup"
)

// Options carries the optional collaborators of an Engine. Nil fields are
// disabled.
type Options struct {
	Cache            *cache.QueryCache
	Collector        *analytics.Collector
	Aggregator       *analytics.Aggregator
	Metrics          *metrics.Metrics
	ZeroResultWindow int
	BatchParallelism int
}

type Engine struct {
	mu         sync.RWMutex
	idx        *index.Index
	cache      *cache.QueryCache
	collector  *analytics.Collector
	aggregator *analytics.Aggregator
	queue      *analytics.RequestQueue
	executor   *executor.Executor
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// SearchResult is the outcome of one ranked query.
type SearchResult struct {
	Query            string             `json:"query"`
	Status           index.Status       `json:"status"`
	Parallel         bool               `json:"parallel"`
	Results          []ranker.ScoredDoc `json:"results"`
	CacheHit         bool               `json:"cache_hit"`
	NoResultRequests int                `json:"no_result_requests"`
}

// Stats is a point-in-time view of the index and its query traffic.
type Stats struct {
	Documents        int                        `json:"documents"`
	Words            int                        `json:"words"`
	NoResultRequests int                        `json:"no_result_requests"`
	RequestWindow    int                        `json:"request_window"`
	CacheHits        int64                      `json:"cache_hits"`
	CacheMisses      int64                      `json:"cache_misses"`
	Analytics        *analytics.AggregatedStats `json:"analytics,omitempty"`
}

func NewEngine(idx *index.Index, opts Options) *Engine {
	e := &Engine{
		idx:        idx,
		cache:      opts.Cache,
		collector:  opts.Collector,
		aggregator: opts.Aggregator,
		metrics:    opts.Metrics,
		executor:   executor.New(idx, opts.BatchParallelism),
		logger:     slog.Default().With("component", "indexer"),
	}
	e.queue = analytics.NewRequestQueue(idx, opts.ZeroResultWindow)
	e.updateGauges()
	return e
}

// AddDocument indexes a document and drops cached results.
func (e *Engine) AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int, source string) error {
	start := time.Now()
	e.mu.Lock()
	err := e.idx.AddDocument(id, text, status, ratings)
	words := 0
	if err == nil {
		words = len(e.idx.GetWordFrequencies(id))
		e.invalidate(ctx)
		e.updateGauges()
	}
	e.mu.Unlock()

	if err != nil {
		if e.metrics != nil {
			e.metrics.DocumentsAddedTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}
	if e.metrics != nil {
		e.metrics.DocumentsAddedTotal.WithLabelValues("added").Inc()
	}
	e.track(analytics.IndexEvent{
		Type:       analytics.EventAddDocument,
		DocumentID: id,
		Status:     status.String(),
		WordCount:  words,
		Source:     source,
		LatencyMs:  time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	logger.FromContext(ctx).Debug("document added", "doc_id", id, "words", words, "source", source)
	return nil
}

// RemoveDocument removes id and reports whether it was present.
func (e *Engine) RemoveDocument(ctx context.Context, id int, parallel bool, source string) bool {
	start := time.Now()
	e.mu.Lock()
	existed := e.idx.Contains(id)
	if existed {
		if parallel {
			e.idx.RemoveDocumentParallel(id)
		} else {
			e.idx.RemoveDocument(id)
		}
		e.invalidate(ctx)
		e.updateGauges()
	}
	e.mu.Unlock()

	if !existed {
		return false
	}
	if e.metrics != nil {
		e.metrics.DocumentsRemovedTotal.WithLabelValues(mode(parallel)).Inc()
	}
	e.track(analytics.IndexEvent{
		Type:       analytics.EventRemoveDocument,
		DocumentID: id,
		Source:     source,
		LatencyMs:  time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	logger.FromContext(ctx).Debug("document removed", "doc_id", id, "parallel", parallel, "source", source)
	return true
}

// Search ranks query among documents with the given status, consulting the
// result cache first, and records the outcome in the zero-result window.
func (e *Engine) Search(ctx context.Context, query string, status index.Status, parallel bool) (*SearchResult, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "engine.search")
	defer span.End()
	e.mu.RLock()
	defer e.mu.RUnlock()
	span.SetAttr("lock_wait_ms", time.Since(start).Milliseconds())

	q, err := parser.Parse(query, e.idx.StopWords())
	if err != nil {
		if e.metrics != nil {
			e.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	compute := func() ([]ranker.ScoredDoc, error) {
		_, rank := tracing.Start(ctx, "index.rank")
		defer rank.End()
		rank.SetAttr("parallel", parallel)
		return e.idx.FindTopDocumentsQuery(q, index.StatusFilter(status), parallel), nil
	}

	var docs []ranker.ScoredDoc
	hit := false
	if e.cache != nil {
		docs, hit, err = e.cache.GetOrCompute(ctx, q, status.String(), compute)
		if err != nil {
			return nil, err
		}
	} else {
		docs, _ = compute()
	}
	e.queue.Record(len(docs) == 0)
	noResults := e.queue.NoResultRequests()
	latency := time.Since(start)
	span.SetAttr("results", len(docs))
	span.SetAttr("cache_hit", hit)

	if e.metrics != nil {
		e.metrics.SearchLatency.WithLabelValues(mode(parallel)).Observe(latency.Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(docs)))
		e.metrics.ZeroResultRequests.Set(float64(noResults))
		if len(docs) == 0 {
			e.metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
		} else {
			e.metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
		}
		if e.cache != nil {
			if hit {
				e.metrics.CacheHitsTotal.Inc()
			} else {
				e.metrics.CacheMissesTotal.Inc()
			}
		}
	}
	e.track(analytics.SearchEvent{
		Type:      analytics.EventSearch,
		Query:     query,
		Required:  q.Required,
		Forbidden: q.Forbidden,
		Status:    status.String(),
		Parallel:  parallel,
		Returned:  len(docs),
		LatencyMs: latency.Milliseconds(),
		CacheHit:  hit,
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})

	return &SearchResult{
		Query:            query,
		Status:           status,
		Parallel:         parallel,
		Results:          docs,
		CacheHit:         hit,
		NoResultRequests: noResults,
	}, nil
}

// Match returns the query terms present in document id and its status.
func (e *Engine) Match(query string, id int, parallel bool) ([]string, index.Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if parallel {
		return e.idx.MatchDocumentParallel(query, id)
	}
	return e.idx.MatchDocument(query, id)
}

// WordFrequencies returns id's word -> term-frequency view.
func (e *Engine) WordFrequencies(id int) map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.GetWordFrequencies(id)
}

// ProcessQueries ranks a batch of queries against active documents.
func (e *Engine) ProcessQueries(ctx context.Context, queries []string) ([][]ranker.ScoredDoc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.executor.ProcessQueries(ctx, queries)
}

// ProcessQueriesJoined is ProcessQueries flattened in query order.
func (e *Engine) ProcessQueriesJoined(ctx context.Context, queries []string) ([]ranker.ScoredDoc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.executor.ProcessQueriesJoined(ctx, queries)
}

// RemoveDuplicates drops every document whose word set repeats a lower id.
func (e *Engine) RemoveDuplicates(ctx context.Context) []int {
	e.mu.Lock()
	removed := dedup.RemoveDuplicates(e.idx, logger.FromContext(ctx).With("component", "dedup"))
	if len(removed) > 0 {
		e.invalidate(ctx)
		e.updateGauges()
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.DuplicatesRemoved.Add(float64(len(removed)))
	}
	now := time.Now().UTC()
	for _, id := range removed {
		e.track(analytics.IndexEvent{
			Type:       analytics.EventRemoveDocument,
			DocumentID: id,
			Source:     SourceDedup,
			Timestamp:  now,
		})
	}
	return removed
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	s := Stats{
		Documents:        e.idx.DocumentCount(),
		Words:            e.idx.WordCount(),
		NoResultRequests: e.queue.NoResultRequests(),
		RequestWindow:    e.queue.Window(),
	}
	e.mu.RUnlock()
	if e.cache != nil {
		s.CacheHits, s.CacheMisses = e.cache.Stats()
	}
	if e.aggregator != nil {
		agg := e.aggregator.Stats()
		s.Analytics = &agg
	}
	return s
}

// invalidate must be called with the write lock held.
func (e *Engine) invalidate(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx); err != nil {
		e.logger.Error("cache invalidation failed", "error", err)
	}
}

func (e *Engine) updateGauges() {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexedDocuments.Set(float64(e.idx.DocumentCount()))
	e.metrics.IndexedWords.Set(float64(e.idx.WordCount()))
}

func (e *Engine) track(event any) {
	if e.collector != nil {
		e.collector.Track(event)
	}
}

func mode(parallel bool) string {
	if parallel {
		return "parallel"
	}
	return "sequential"
}
