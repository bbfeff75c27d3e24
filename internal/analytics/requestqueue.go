package analytics

import (
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// DefaultWindow is the number of trailing requests tracked: one per minute
// over a day.
const DefaultWindow = 1440

// Searcher ranks a query under a predicate. *index.Index satisfies it.
type Searcher interface {
	FindTopDocuments(query string, predicate index.Predicate) ([]ranker.ScoredDoc, error)
}

// RequestQueue forwards queries to a Searcher and counts how many of the
// last window requests returned no documents. Requests that fail are not
// recorded. It is safe for concurrent use.
type RequestQueue struct {
	searcher Searcher

	mu        sync.Mutex
	empty     []bool // ring buffer, oldest at head
	head      int
	size      int
	noResults int
}

// NewRequestQueue creates a queue over searcher tracking window requests.
// A non-positive window selects DefaultWindow.
func NewRequestQueue(searcher Searcher, window int) *RequestQueue {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RequestQueue{
		searcher: searcher,
		empty:    make([]bool, window),
	}
}

// AddFindRequest runs the query and records whether it found anything.
func (q *RequestQueue) AddFindRequest(query string, predicate index.Predicate) ([]ranker.ScoredDoc, error) {
	docs, err := q.searcher.FindTopDocuments(query, predicate)
	if err != nil {
		return nil, err
	}
	q.Record(len(docs) == 0)
	return docs, nil
}

// AddFindRequestByStatus is AddFindRequest restricted to one status.
func (q *RequestQueue) AddFindRequestByStatus(query string, status index.Status) ([]ranker.ScoredDoc, error) {
	return q.AddFindRequest(query, index.StatusFilter(status))
}

// Record appends one request outcome to the window, evicting the oldest
// once the window is full. Callers that rank through another path (the
// result cache) use it directly.
func (q *RequestQueue) Record(noResult bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	window := len(q.empty)
	if q.size == window {
		if q.empty[q.head] {
			q.noResults--
		}
		q.empty[q.head] = noResult
		q.head = (q.head + 1) % window
	} else {
		q.empty[(q.head+q.size)%window] = noResult
		q.size++
	}
	if noResult {
		q.noResults++
	}
}

// NoResultRequests returns the number of zero-result requests among the
// last window requests.
func (q *RequestQueue) NoResultRequests() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.noResults
}

// Len returns the number of requests currently in the window.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Window returns the window capacity.
func (q *RequestQueue) Window() int {
	return len(q.empty)
}
