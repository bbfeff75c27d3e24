package index

import "sync"

// Posting is one (document, term-frequency) pair recorded against a word.
type Posting struct {
	DocID    int
	TermFreq float64
}

type PostingList []Posting

// postingList holds every posting of one word behind its own lock.
type postingList struct {
	mu   sync.RWMutex
	docs map[int]float64
}

func newPostingList() *postingList {
	return &postingList{docs: make(map[int]float64)}
}

func (p *postingList) set(id int, tf float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[id] = tf
}

// remove erases id and reports whether the list is now empty.
func (p *postingList) remove(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.docs, id)
	return len(p.docs) == 0
}

func (p *postingList) contains(id int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.docs[id]
	return ok
}

func (p *postingList) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.docs)
}

// snapshot copies the postings so callers iterate without holding the lock.
func (p *postingList) snapshot() PostingList {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make(PostingList, 0, len(p.docs))
	for id, tf := range p.docs {
		result = append(result, Posting{DocID: id, TermFreq: tf})
	}
	return result
}
