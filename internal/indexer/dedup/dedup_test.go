package dedup

import (
	"bytes"
	"log/slog"
	"slices"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveDuplicates(t *testing.T) {
	idx, err := index.NewFromText("and with")
	require.NoError(t, err)
	docs := map[int]string{
		1: "funny pet and nasty rat",
		2: "funny pet with curly hair",
		3: "funny pet with curly hair",
		4: "funny pet and curly hair",
		5: "funny funny pet and nasty nasty rat",
		6: "funny pet and not very nasty rat",
		7: "very nasty rat and not very funny pet",
		8: "pet with rat and rat and rat",
		9: "nasty rat with curly hair",
	}
	for id, text := range docs {
		require.NoError(t, idx.AddDocument(id, text, index.StatusActive, []int{1, 2}))
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	removed := RemoveDuplicates(idx, logger)

	assert.Equal(t, []int{3, 4, 5, 7}, removed)
	assert.Equal(t, []int{1, 2, 6, 8, 9}, slices.Collect(idx.DocumentIDs()))
	assert.Equal(t, 4, bytes.Count(buf.Bytes(), []byte("found duplicate document id")))
	assert.Contains(t, buf.String(), "doc_id=3")
}

func TestRemoveDuplicatesKeepsLowestID(t *testing.T) {
	idx, err := index.New(nil)
	require.NoError(t, err)
	require.NoError(t, idx.AddDocument(40, "b a", index.StatusActive, nil))
	require.NoError(t, idx.AddDocument(7, "a b b", index.StatusBanned, nil))
	require.NoError(t, idx.AddDocument(12, "a b", index.StatusActive, nil))

	assert.Equal(t, []int{12, 40}, RemoveDuplicates(idx, nil))
	assert.Equal(t, []int{7}, slices.Collect(idx.DocumentIDs()))
}

func TestRemoveDuplicatesNone(t *testing.T) {
	idx, err := index.New(nil)
	require.NoError(t, err)
	assert.Empty(t, RemoveDuplicates(idx, nil))

	require.NoError(t, idx.AddDocument(1, "a", index.StatusActive, nil))
	require.NoError(t, idx.AddDocument(2, "a b", index.StatusActive, nil))
	assert.Empty(t, FindDuplicates(idx))
}

func TestEmptyWordSetsAreDuplicates(t *testing.T) {
	idx, err := index.NewFromText("in the")
	require.NoError(t, err)
	require.NoError(t, idx.AddDocument(1, "in the", index.StatusActive, nil))
	require.NoError(t, idx.AddDocument(2, "", index.StatusActive, nil))
	assert.Equal(t, []int{2}, FindDuplicates(idx))
}
