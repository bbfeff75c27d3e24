// Package index is the in-memory inverted index: word -> document postings,
// the inverse document -> word view, per-document rating and status, and
// the set of live ids. It ranks documents by TF-IDF and matches queries
// against single documents, each in a sequential and a parallel form with
// identical results.
//
// Ranking, matching and removal may run concurrently with one another.
// AddDocument is safe to call concurrently as well, but a ranking call that
// overlaps an AddDocument may or may not observe the new document; callers
// that need a stable corpus per query serialize adds against queries.
//
// Removal takes an id out of the live set first and erases its document entry
// last. An AddDocument of the same id that lands between the two fails with
// DuplicateID even though the id is no longer live; once RemoveDocument
// returns the id can be added again.
package index

import (
	"iter"
	"maps"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"
)

type Index struct {
	stopWords tokenizer.StopWords
	opts      options

	// dictMu guards the words map itself; each postingList has its own lock.
	// Lock order is dictMu before postingList.mu.
	dictMu sync.RWMutex
	words  map[string]*postingList

	docs *shard.Map[int, document]

	idsMu sync.RWMutex
	ids   *roaring64.Bitmap
}

// New creates an empty Index that ignores stopWords. It fails with
// InvalidInput if a stop word contains a control character.
func New(stopWords []string, opts ...Option) (*Index, error) {
	sw, err := tokenizer.NewStopWords(stopWords)
	if err != nil {
		return nil, err
	}
	return newIndex(sw, opts), nil
}

// NewFromText is New with the stop words given as one space-separated string.
func NewFromText(stopWords string, opts ...Option) (*Index, error) {
	sw, err := tokenizer.ParseStopWords(stopWords)
	if err != nil {
		return nil, err
	}
	return newIndex(sw, opts), nil
}

func newIndex(sw tokenizer.StopWords, opts []Option) *Index {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Index{
		stopWords: sw,
		opts:      o,
		words:     make(map[string]*postingList),
		docs:      shard.New[int, document](o.bucketCount),
		ids:       roaring64.NewBitmap(),
	}
}

// StopWords returns the stop words the index was built with.
func (idx *Index) StopWords() tokenizer.StopWords {
	return idx.stopWords
}

// AddDocument indexes text under id. It fails with DuplicateID when id is
// negative or already present and with InvalidInput when text or status is
// invalid; on failure the index is left untouched.
func (idx *Index) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return apperrors.DuplicateID(id)
	}
	if !status.valid() {
		return apperrors.InvalidInput("unknown document status %d", int(status))
	}
	words, err := idx.stopWords.SplitWordsNoStop(text)
	if err != nil {
		return err
	}
	doc := document{
		rating: averageRating(ratings),
		status: status,
		terms:  termFrequencies(words),
	}
	if _, loaded := idx.docs.LoadOrStore(id, doc); loaded {
		return apperrors.DuplicateID(id)
	}

	idx.dictMu.Lock()
	for word, tf := range doc.terms {
		pl, ok := idx.words[word]
		if !ok {
			pl = newPostingList()
			idx.words[word] = pl
		}
		pl.set(id, tf)
	}
	idx.dictMu.Unlock()

	idx.idsMu.Lock()
	idx.ids.Add(uint64(id))
	idx.idsMu.Unlock()
	return nil
}

// RemoveDocument purges id from every view. Unknown ids are a no-op.
func (idx *Index) RemoveDocument(id int) {
	idx.removeDocument(id, false)
}

// RemoveDocumentParallel is RemoveDocument with the document's postings
// split across goroutines, each goroutine owning a disjoint set of words.
func (idx *Index) RemoveDocumentParallel(id int) {
	idx.removeDocument(id, true)
}

func (idx *Index) removeDocument(id int, parallel bool) {
	if id < 0 {
		return
	}
	doc, ok := idx.docs.Load(id)
	if !ok {
		return
	}
	idx.idsMu.Lock()
	live := idx.ids.Contains(uint64(id))
	if live {
		idx.ids.Remove(uint64(id))
	}
	idx.idsMu.Unlock()
	if !live {
		return
	}

	words := make([]string, 0, len(doc.terms))
	for w := range doc.terms {
		words = append(words, w)
	}
	if parallel {
		var g errgroup.Group
		for _, part := range partition(words, idx.opts.parallelism) {
			g.Go(func() error {
				for _, w := range part {
					idx.erasePosting(w, id)
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, w := range words {
			idx.erasePosting(w, id)
		}
	}
	idx.docs.Erase(id)
}

func (idx *Index) erasePosting(word string, id int) {
	pl := idx.lookup(word)
	if pl == nil {
		return
	}
	if !pl.remove(id) {
		return
	}
	idx.dictMu.Lock()
	defer idx.dictMu.Unlock()
	if idx.words[word] == pl && pl.len() == 0 {
		delete(idx.words, word)
	}
}

// partition splits words into at most n contiguous, non-empty parts.
func partition(words []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	if n > len(words) {
		n = len(words)
	}
	parts := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		lo := i * len(words) / n
		hi := (i + 1) * len(words) / n
		parts = append(parts, words[lo:hi])
	}
	return parts
}

func (idx *Index) lookup(word string) *postingList {
	idx.dictMu.RLock()
	defer idx.dictMu.RUnlock()
	return idx.words[word]
}

// Search returns a copy of word's postings in no particular order.
func (idx *Index) Search(word string) PostingList {
	pl := idx.lookup(word)
	if pl == nil {
		return nil
	}
	return pl.snapshot()
}

func (idx *Index) hasPosting(word string, id int) bool {
	pl := idx.lookup(word)
	return pl != nil && pl.contains(id)
}

func (idx *Index) isLive(id int) bool {
	if id < 0 {
		return false
	}
	idx.idsMu.RLock()
	defer idx.idsMu.RUnlock()
	return idx.ids.Contains(uint64(id))
}

// Contains reports whether id is a live document.
func (idx *Index) Contains(id int) bool {
	return idx.isLive(id)
}

func (idx *Index) liveDocument(id int) (document, bool) {
	if !idx.isLive(id) {
		return document{}, false
	}
	return idx.docs.Load(id)
}

// GetWordFrequencies returns a copy of id's word -> term-frequency view, or
// an empty map when id is unknown.
func (idx *Index) GetWordFrequencies(id int) map[string]float64 {
	doc, ok := idx.liveDocument(id)
	if !ok {
		return map[string]float64{}
	}
	return maps.Clone(doc.terms)
}

// DocumentCount returns the number of live documents.
func (idx *Index) DocumentCount() int {
	idx.idsMu.RLock()
	defer idx.idsMu.RUnlock()
	return int(idx.ids.GetCardinality())
}

// WordCount returns the number of distinct indexed words.
func (idx *Index) WordCount() int {
	idx.dictMu.RLock()
	defer idx.dictMu.RUnlock()
	return len(idx.words)
}

// DocumentIDs iterates over the ids live at the time of the call, ascending.
func (idx *Index) DocumentIDs() iter.Seq[int] {
	idx.idsMu.RLock()
	ids := idx.ids.ToArray()
	idx.idsMu.RUnlock()
	return func(yield func(int) bool) {
		for _, id := range ids {
			if !yield(int(id)) {
				return
			}
		}
	}
}

// DocumentIDAt returns the i-th live id in ascending order. It fails with
// OutOfRange when i is negative or not below DocumentCount.
func (idx *Index) DocumentIDAt(i int) (int, error) {
	idx.idsMu.RLock()
	defer idx.idsMu.RUnlock()
	count := int(idx.ids.GetCardinality())
	if i < 0 || i >= count {
		return 0, apperrors.OutOfRange(i, count)
	}
	id, err := idx.ids.Select(uint64(i))
	if err != nil {
		return 0, apperrors.OutOfRange(i, count)
	}
	return int(id), nil
}
