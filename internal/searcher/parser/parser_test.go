package parser

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopWords(t *testing.T, words ...string) tokenizer.StopWords {
	t.Helper()
	sw, err := tokenizer.NewStopWords(words)
	require.NoError(t, err)
	return sw
}

func TestParse(t *testing.T) {
	sw := stopWords(t, "in", "the")
	tests := []struct {
		name      string
		query     string
		required  []string
		forbidden []string
	}{
		{"empty", "", []string{}, []string{}},
		{"blank", "   ", []string{}, []string{}},
		{"required only", "cat city", []string{"cat", "city"}, []string{}},
		{"forbidden", "cat -dog", []string{"cat"}, []string{"dog"}},
		{"deduplicated", "cat cat -dog -dog city", []string{"cat", "city"}, []string{"dog"}},
		{"order insensitive", "city cat", []string{"cat", "city"}, []string{}},
		{"stop words dropped", "cat in the city", []string{"cat", "city"}, []string{}},
		{"marked stop word dropped", "cat -the", []string{"cat"}, []string{}},
		{"same word both sides", "city -city", []string{"city"}, []string{"city"}},
		{"inner dash kept", "well-known", []string{"well-known"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.query, sw)
			require.NoError(t, err)
			assert.Equal(t, tt.required, q.Required)
			assert.Equal(t, tt.forbidden, q.Forbidden)
			assert.Equal(t, tt.query, q.RawQuery)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	sw := stopWords(t, "in", "the")
	tests := []struct {
		name  string
		query string
		word  string
	}{
		{"bare marker", "cat -", "-"},
		{"doubled marker", "cat --dog", "--dog"},
		{"doubled marker on stop word", "--the", "--the"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, sw)
			require.ErrorIs(t, err, apperrors.ErrMalformedQuery)
			var e *apperrors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.word, e.Word)
		})
	}
}

func TestParseInvalidCharacter(t *testing.T) {
	_, err := Parse("ca\x01t", nil)
	require.ErrorIs(t, err, apperrors.ErrMalformedQuery)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQueryKey(t *testing.T) {
	sw := stopWords(t, "the")
	a, err := Parse("dog cat -bird the", sw)
	require.NoError(t, err)
	b, err := Parse("cat -bird dog dog", sw)
	require.NoError(t, err)
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "R2:3:cat:3:dogF1:4:bird", a.Key())

	c, err := Parse("cat dog", sw)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestQueryKeySeparatorsInWords(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"comma joins two words", "a b", "a,b"},
		{"pipe and marker inside a word", "x|NOT:y", "x -y"},
		{"colon digits", "1:a", "1 a"},
		{"length prefix lookalike", "R1:1:a", "a"},
		{"required versus forbidden", "cat", "-cat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.a, nil)
			require.NoError(t, err)
			b, err := Parse(tt.b, nil)
			require.NoError(t, err)
			assert.NotEqual(t, a.Key(), b.Key())
		})
	}
}

func TestQueryEmpty(t *testing.T) {
	q, err := Parse("the", stopWords(t, "the"))
	require.NoError(t, err)
	assert.True(t, q.Empty())
}
