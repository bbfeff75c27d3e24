// Package parser turns raw query text into required and forbidden terms.
// A word prefixed with '-' is forbidden; every other word is required. Stop
// words are dropped after the marker is stripped, so "-the" is not an error
// when "the" is a stop word.
package parser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// ForbiddenMarker prefixes a forbidden query term.
const ForbiddenMarker = '-'

// Query is a parsed query. Both term lists are deduplicated and sorted.
type Query struct {
	Required  []string
	Forbidden []string
	RawQuery  string
}

// Empty reports whether the query has no terms at all.
func (q *Query) Empty() bool {
	return len(q.Required) == 0 && len(q.Forbidden) == 0
}

// Key is a canonical form of the query: two queries with the same term sets
// have the same key regardless of word order or repetition. Every term is
// length-prefixed, so separator characters inside words cannot make two
// different term sets collide.
func (q *Query) Key() string {
	var b strings.Builder
	writeTerms(&b, 'R', q.Required)
	writeTerms(&b, 'F', q.Forbidden)
	return b.String()
}

func writeTerms(b *strings.Builder, tag byte, terms []string) {
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(terms)))
	for _, t := range terms {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte(':')
		b.WriteString(t)
	}
}

type queryWord struct {
	text      string
	forbidden bool
}

func parseWord(word string) (queryWord, error) {
	if word == "" || word[0] != ForbiddenMarker {
		return queryWord{text: word}, nil
	}
	text := word[1:]
	if text == "" {
		return queryWord{}, apperrors.MalformedQuery(word, "empty forbidden term", nil)
	}
	if text[0] == ForbiddenMarker {
		return queryWord{}, apperrors.MalformedQuery(word, "doubled forbidden marker", nil)
	}
	return queryWord{text: text, forbidden: true}, nil
}

// Parse splits text into words and classifies them against stopWords.
// Invalid characters and bad forbidden-term syntax fail with MalformedQuery.
// An empty query parses to an empty Query.
func Parse(text string, stopWords tokenizer.StopWords) (*Query, error) {
	words, err := tokenizer.SplitWords(text)
	if err != nil {
		return nil, apperrors.MalformedQuery(text, "invalid character", err)
	}
	required := make(map[string]struct{})
	forbidden := make(map[string]struct{})
	for _, word := range words {
		qw, err := parseWord(word)
		if err != nil {
			return nil, err
		}
		if stopWords.Contains(qw.text) {
			continue
		}
		if qw.forbidden {
			forbidden[qw.text] = struct{}{}
		} else {
			required[qw.text] = struct{}{}
		}
	}
	return &Query{
		Required:  sortedKeys(required),
		Forbidden: sortedKeys(forbidden),
		RawQuery:  text,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
