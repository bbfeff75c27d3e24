package index

import (
	"runtime"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// DefaultBucketCount is the number of buckets of the sharded maps used by
// the index and by parallel ranking.
const DefaultBucketCount = 16

type options struct {
	bucketCount int
	parallelism int
	maxResults  int
}

func defaultOptions() options {
	return options{
		bucketCount: DefaultBucketCount,
		parallelism: runtime.GOMAXPROCS(0),
		maxResults:  ranker.MaxResults,
	}
}

// Option configures an Index.
type Option func(*options)

// WithBucketCount sets the bucket count of the document store and of the
// relevance accumulator. A non-positive count panics in New.
func WithBucketCount(n int) Option {
	return func(o *options) {
		o.bucketCount = n
	}
}

// WithParallelism caps the goroutines a parallel operation runs at once.
// Non-positive values select runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.parallelism = n
	}
}

// WithMaxResults sets how many documents FindTopDocuments returns at most.
// Non-positive values keep the default of ranker.MaxResults.
func WithMaxResults(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResults = n
		}
	}
}
