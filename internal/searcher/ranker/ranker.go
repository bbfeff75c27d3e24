// Package ranker holds the TF-IDF scoring helpers and the ordering used for
// search results.
package ranker

import (
	"math"
	"sort"
)

const (
	// MaxResults is the default cap on returned documents.
	MaxResults = 5
	// RelevanceEpsilon is the relevance difference below which two documents
	// are ordered by rating instead.
	RelevanceEpsilon = 1e-6
)

// ScoredDoc is one search result.
type ScoredDoc struct {
	ID        int     `json:"document_id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// IDF returns ln(totalDocs/docFreq). docFreq must be positive.
func IDF(totalDocs, docFreq int) float64 {
	return math.Log(float64(totalDocs) / float64(docFreq))
}

// Less orders by relevance descending; relevances closer than
// RelevanceEpsilon fall back to rating descending, then id ascending.
func Less(a, b ScoredDoc) bool {
	if math.Abs(a.Relevance-b.Relevance) < RelevanceEpsilon {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	}
	return a.Relevance > b.Relevance
}

// Sort orders docs in place with Less.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		return Less(docs[i], docs[j])
	})
}

// Top turns accumulated relevances into sorted results truncated to limit.
// ratingOf supplies each document's rating; a limit <= 0 keeps everything.
func Top(relevances map[int]float64, ratingOf func(id int) int, limit int) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(relevances))
	for id, relevance := range relevances {
		result = append(result, ScoredDoc{
			ID:        id,
			Relevance: relevance,
			Rating:    ratingOf(id),
		})
	}
	Sort(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
