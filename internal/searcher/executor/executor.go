// Package executor runs batches of queries against a Searcher, fanning the
// queries out across goroutines and collecting results in query order.
package executor

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"golang.org/x/sync/errgroup"
)

// Searcher ranks one query. *index.Index satisfies it.
type Searcher interface {
	FindTopDocumentsDefault(query string) ([]ranker.ScoredDoc, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(query string) ([]ranker.ScoredDoc, error)

func (f SearcherFunc) FindTopDocumentsDefault(query string) ([]ranker.ScoredDoc, error) {
	return f(query)
}

type Executor struct {
	searcher    Searcher
	parallelism int
	logger      *slog.Logger
}

// New returns an Executor running at most parallelism queries at once;
// non-positive values select runtime.GOMAXPROCS(0).
func New(searcher Searcher, parallelism int) *Executor {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Executor{
		searcher:    searcher,
		parallelism: parallelism,
		logger:      slog.Default().With("component", "query-executor"),
	}
}

// ProcessQueries ranks every query concurrently. results[i] belongs to
// queries[i]. The first failing query cancels the rest and its error is
// returned.
func (e *Executor) ProcessQueries(ctx context.Context, queries []string) ([][]ranker.ScoredDoc, error) {
	start := time.Now()
	results := make([][]ranker.ScoredDoc, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, query := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := e.searcher.FindTopDocumentsDefault(query)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("batch executed",
		"queries", len(queries),
		"parallelism", e.parallelism,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// ProcessQueriesJoined is ProcessQueries flattened into one list, query by
// query, each query's documents in rank order.
func (e *Executor) ProcessQueriesJoined(ctx context.Context, queries []string) ([]ranker.ScoredDoc, error) {
	batches, err := e.ProcessQueries(ctx, queries)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	joined := make([]ranker.ScoredDoc, 0, n)
	for _, b := range batches {
		joined = append(joined, b...)
	}
	return joined, nil
}

// ProcessQueries runs queries against searcher with default parallelism.
func ProcessQueries(ctx context.Context, searcher Searcher, queries []string) ([][]ranker.ScoredDoc, error) {
	return New(searcher, 0).ProcessQueries(ctx, queries)
}

// ProcessQueriesJoined runs queries against searcher with default
// parallelism and flattens the results.
func ProcessQueriesJoined(ctx context.Context, searcher Searcher, queries []string) ([]ranker.ScoredDoc, error) {
	return New(searcher, 0).ProcessQueriesJoined(ctx, queries)
}
