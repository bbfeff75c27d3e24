// Package tokenizer splits document and query text into words and validates
// them. Words are whitespace-delimited and kept verbatim: no case folding or
// stemming. Any ASCII control character makes the text invalid.
package tokenizer

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// isControl reports whether r is an ASCII control code below the space.
func isControl(r rune) bool {
	return r >= 0 && r < ' '
}

// IsValidWord reports whether word is free of control characters.
func IsValidWord(word string) bool {
	return strings.IndexFunc(word, isControl) < 0
}

// SplitWords breaks text into its whitespace-separated words. It fails with
// an InvalidInput error naming the first control character found.
func SplitWords(text string) ([]string, error) {
	if pos := strings.IndexFunc(text, isControl); pos >= 0 {
		return nil, apperrors.InvalidChar(rune(text[pos]), pos)
	}
	return strings.Fields(text), nil
}

// StopWords is a set of words excluded from indexing and from queries.
type StopWords map[string]struct{}

// NewStopWords builds a StopWords set from words. Empty strings are ignored.
func NewStopWords(words []string) (StopWords, error) {
	set := make(StopWords, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		if !IsValidWord(word) {
			pos := strings.IndexFunc(word, isControl)
			return nil, apperrors.InvalidChar(rune(word[pos]), pos)
		}
		set[word] = struct{}{}
	}
	return set, nil
}

// ParseStopWords splits a space-separated list and builds a StopWords set.
func ParseStopWords(text string) (StopWords, error) {
	words, err := SplitWords(text)
	if err != nil {
		return nil, err
	}
	return NewStopWords(words)
}

func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Words returns the stop words in no particular order.
func (s StopWords) Words() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	return words
}

// SplitWordsNoStop splits text and drops every stop word.
func (s StopWords) SplitWordsNoStop(text string) ([]string, error) {
	words, err := SplitWords(text)
	if err != nil {
		return nil, err
	}
	kept := words[:0]
	for _, w := range words {
		if s.Contains(w) {
			continue
		}
		kept = append(kept, w)
	}
	return kept, nil
}
