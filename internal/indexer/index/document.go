package index

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Status is the moderation state of a document.
type Status int

const (
	StatusActive Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{
	StatusActive:     "active",
	StatusIrrelevant: "irrelevant",
	StatusBanned:     "banned",
	StatusRemoved:    "removed",
}

func (s Status) valid() bool {
	return s >= StatusActive && s <= StatusRemoved
}

func (s Status) String() string {
	if !s.valid() {
		return "unknown"
	}
	return statusNames[s]
}

// ParseStatus converts the textual form of a status. The empty string means
// StatusActive.
func ParseStatus(text string) (Status, error) {
	if text == "" {
		return StatusActive, nil
	}
	for s, name := range statusNames {
		if name == text {
			return Status(s), nil
		}
	}
	return 0, apperrors.InvalidInput("unknown document status %q", text)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// document is the per-id entry of the store. terms is the document's
// word -> term-frequency view and is never mutated after AddDocument.
type document struct {
	rating int
	status Status
	terms  map[string]float64
}

// averageRating is the truncating integer mean of ratings, 0 when empty.
func averageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return int(sum / int64(len(ratings)))
}

// termFrequencies counts each word as 1/len(words) of the document.
func termFrequencies(words []string) map[string]float64 {
	terms := make(map[string]float64)
	if len(words) == 0 {
		return terms
	}
	inc := 1.0 / float64(len(words))
	for _, w := range words {
		terms[w] += inc
	}
	return terms
}
