package index

import (
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"golang.org/x/sync/errgroup"
)

// Predicate decides whether a document may appear in search results. The
// parallel search calls it from several goroutines at once.
type Predicate func(id int, status Status, rating int) bool

// StatusFilter accepts exactly the documents with the given status.
func StatusFilter(status Status) Predicate {
	return func(_ int, s Status, _ int) bool {
		return s == status
	}
}

// FindTopDocuments ranks documents matching query by TF-IDF among those
// accepted by predicate. Documents containing a forbidden term are
// excluded. At most MaxResults documents are returned.
func (idx *Index) FindTopDocuments(query string, predicate Predicate) ([]ranker.ScoredDoc, error) {
	return idx.findTop(query, predicate, false)
}

// FindTopDocumentsParallel is FindTopDocuments with required and forbidden
// terms processed concurrently through a sharded accumulator.
func (idx *Index) FindTopDocumentsParallel(query string, predicate Predicate) ([]ranker.ScoredDoc, error) {
	return idx.findTop(query, predicate, true)
}

// FindTopDocumentsByStatus restricts results to one status.
func (idx *Index) FindTopDocumentsByStatus(query string, status Status) ([]ranker.ScoredDoc, error) {
	return idx.FindTopDocuments(query, StatusFilter(status))
}

// FindTopDocumentsDefault restricts results to active documents.
func (idx *Index) FindTopDocumentsDefault(query string) ([]ranker.ScoredDoc, error) {
	return idx.FindTopDocumentsByStatus(query, StatusActive)
}

func (idx *Index) findTop(query string, predicate Predicate, parallel bool) ([]ranker.ScoredDoc, error) {
	q, err := parser.Parse(query, idx.stopWords)
	if err != nil {
		return nil, err
	}
	return idx.FindTopDocumentsQuery(q, predicate, parallel), nil
}

// FindTopDocumentsQuery ranks an already parsed query.
func (idx *Index) FindTopDocumentsQuery(q *parser.Query, predicate Predicate, parallel bool) []ranker.ScoredDoc {
	if predicate == nil {
		predicate = StatusFilter(StatusActive)
	}
	var relevances map[int]float64
	if parallel {
		relevances = idx.findAllParallel(q, predicate)
	} else {
		relevances = idx.findAll(q, predicate)
	}
	return ranker.Top(relevances, idx.ratingOf, idx.opts.maxResults)
}

func (idx *Index) ratingOf(id int) int {
	doc, _ := idx.docs.Load(id)
	return doc.rating
}

// termPostings returns the postings and IDF of word, or ok=false when the
// word has no postings.
func (idx *Index) termPostings(word string, total int) (PostingList, float64, bool) {
	postings := idx.Search(word)
	if len(postings) == 0 {
		return nil, 0, false
	}
	return postings, ranker.IDF(total, len(postings)), true
}

func (idx *Index) accepts(id int, predicate Predicate) bool {
	doc, ok := idx.docs.Load(id)
	return ok && predicate(id, doc.status, doc.rating)
}

func (idx *Index) findAll(q *parser.Query, predicate Predicate) map[int]float64 {
	total := idx.DocumentCount()
	relevances := make(map[int]float64)
	for _, word := range q.Required {
		postings, idf, ok := idx.termPostings(word, total)
		if !ok {
			continue
		}
		for _, p := range postings {
			if !idx.accepts(p.DocID, predicate) {
				continue
			}
			relevances[p.DocID] += p.TermFreq * idf
		}
	}
	for _, word := range q.Forbidden {
		for _, p := range idx.Search(word) {
			delete(relevances, p.DocID)
		}
	}
	return relevances
}

func (idx *Index) findAllParallel(q *parser.Query, predicate Predicate) map[int]float64 {
	total := idx.DocumentCount()
	relevances := shard.New[int, float64](idx.opts.bucketCount)

	var g errgroup.Group
	g.SetLimit(idx.opts.parallelism)
	for _, word := range q.Required {
		g.Go(func() error {
			postings, idf, ok := idx.termPostings(word, total)
			if !ok {
				return nil
			}
			for _, p := range postings {
				if !idx.accepts(p.DocID, predicate) {
					continue
				}
				relevances.Access(p.DocID, func(v *float64) {
					*v += p.TermFreq * idf
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	var forbidden errgroup.Group
	forbidden.SetLimit(idx.opts.parallelism)
	for _, word := range q.Forbidden {
		forbidden.Go(func() error {
			for _, p := range idx.Search(word) {
				relevances.Erase(p.DocID)
			}
			return nil
		})
	}
	_ = forbidden.Wait()

	return relevances.BuildOrdinaryMap()
}
