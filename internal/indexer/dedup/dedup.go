// Package dedup removes documents whose set of indexed words equals that of
// a document with a lower id. Term frequencies and word order are ignored.
package dedup

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Index is the part of the index the detector reads and mutates.
type Index interface {
	DocumentIDs() iter.Seq[int]
	GetWordFrequencies(id int) map[string]float64
	RemoveDocument(id int)
}

// FindDuplicates returns, ascending, every live id whose word set was
// already seen at a lower id.
func FindDuplicates(idx Index) []int {
	seen := make(map[string]struct{})
	var duplicates []int
	for id := range idx.DocumentIDs() {
		key := wordSetKey(idx.GetWordFrequencies(id))
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

// RemoveDuplicates removes every duplicate found by FindDuplicates, logging
// each one, and returns the removed ids ascending.
func RemoveDuplicates(idx Index, logger *slog.Logger) []int {
	if logger == nil {
		logger = slog.Default()
	}
	duplicates := FindDuplicates(idx)
	for _, id := range duplicates {
		logger.Info("found duplicate document id", "doc_id", id)
		idx.RemoveDocument(id)
	}
	return duplicates
}

// wordSetKey joins the sorted words with a space, which never occurs inside
// an indexed word.
func wordSetKey(freqs map[string]float64) string {
	return strings.Join(slices.Sorted(maps.Keys(freqs)), " ")
}
