package index

import (
	"slices"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MatchDocument returns the required query terms present in document id,
// sorted, together with its status. If the document contains any forbidden
// term the word list is empty. It fails with UnknownDocument when id is not
// live and with MalformedQuery on a bad query.
func (idx *Index) MatchDocument(query string, id int) ([]string, Status, error) {
	return idx.matchDocument(query, id, false)
}

// MatchDocumentParallel is MatchDocument with the term checks fanned out
// across goroutines.
func (idx *Index) MatchDocumentParallel(query string, id int) ([]string, Status, error) {
	return idx.matchDocument(query, id, true)
}

func (idx *Index) matchDocument(query string, id int, parallel bool) ([]string, Status, error) {
	doc, ok := idx.liveDocument(id)
	if !ok {
		return nil, 0, apperrors.UnknownDocument(id)
	}
	q, err := parser.Parse(query, idx.stopWords)
	if err != nil {
		return nil, 0, err
	}
	if parallel {
		return idx.matchParallel(q, id), doc.status, nil
	}
	return idx.match(q, id), doc.status, nil
}

func (idx *Index) match(q *parser.Query, id int) []string {
	for _, word := range q.Forbidden {
		if idx.hasPosting(word, id) {
			return []string{}
		}
	}
	matched := make([]string, 0, len(q.Required))
	for _, word := range q.Required {
		if idx.hasPosting(word, id) {
			matched = append(matched, word)
		}
	}
	return matched
}

func (idx *Index) matchParallel(q *parser.Query, id int) []string {
	var excluded atomic.Bool
	var g errgroup.Group
	g.SetLimit(idx.opts.parallelism)
	for _, word := range q.Forbidden {
		g.Go(func() error {
			if !excluded.Load() && idx.hasPosting(word, id) {
				excluded.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	if excluded.Load() {
		return []string{}
	}

	found := make([]string, len(q.Required))
	var required errgroup.Group
	required.SetLimit(idx.opts.parallelism)
	for i, word := range q.Required {
		required.Go(func() error {
			if idx.hasPosting(word, id) {
				found[i] = word
			}
			return nil
		})
	}
	_ = required.Wait()

	matched := slices.DeleteFunc(found, func(w string) bool { return w == "" })
	slices.Sort(matched)
	return slices.Compact(matched)
}
